package salesorders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
)

// PaymentInput is the body of POST /sales-orders/{id}/payments.
type PaymentInput struct {
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,oneof=cash card transfer check other"`
	Reference  string          `json:"reference" validate:"max=100"`
	PaidAt     *time.Time      `json:"paidAt"`
	RecordedBy string          `json:"-"`
}

// RecordPayment adds a payment under a row lock and recomputes the paid
// amount and payment status. Payments may not exceed the order total.
func (s *Service) RecordPayment(ctx context.Context, id uint, in PaymentInput) (*models.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("payment amount must be positive")
	}
	pay := &models.Payment{
		Amount:     in.Amount.Round(2),
		Method:     in.Method,
		Reference:  in.Reference,
		PaidAt:     s.Now(),
		RecordedBy: in.RecordedBy,
		CreatedAt:  s.Now(),
	}
	if in.PaidAt != nil {
		pay.PaidAt = *in.PaidAt
	}

	var o *models.SalesOrder
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if o, err = services.FindForUpdate[models.SalesOrder](tx, entity, id); err != nil {
			return err
		}
		switch o.Status {
		case models.OrderCancelled, models.OrderReturned:
			return apperr.InvalidState(string(o.Status), "cannot record payment for sales order in status %s", o.Status)
		}
		paid := o.AmountPaid.Add(pay.Amount)
		if paid.GreaterThan(o.Total) {
			return apperr.Validation("payment exceeds outstanding balance of %s", o.Balance().StringFixed(2)).
				WithDetail("balance", o.Balance().StringFixed(2))
		}
		pay.SalesOrderID = o.ID
		if err := tx.Create(pay).Error; err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		o.AmountPaid = paid
		o.PaymentStatus = paymentStatus(paid, o.Total)
		return tx.Model(o).Updates(map[string]any{
			"amount_paid":    o.AmountPaid,
			"payment_status": o.PaymentStatus,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, "payment", o.ID, o.Number, string(o.PaymentStatus))
	return pay, nil
}

// Payments lists the payments of an order in payment order.
func (s *Service) Payments(ctx context.Context, id uint) ([]models.Payment, error) {
	db := s.Conn(ctx)
	if err := services.MustExist[models.SalesOrder](db, entity, id); err != nil {
		return nil, err
	}
	out := []models.Payment{}
	if err := db.Where("sales_order_id = ?", id).Order("paid_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}
