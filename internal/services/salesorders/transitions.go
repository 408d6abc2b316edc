package salesorders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

type applyFunc func(tx *gorm.DB, o *models.SalesOrder, now time.Time, p query.Patch) error

func (s *Service) transition(ctx context.Context, id uint, action string, apply applyFunc) (*models.SalesOrder, error) {
	now := s.Now()
	var o *models.SalesOrder
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if o, err = services.FindForUpdate[models.SalesOrder](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(action, o.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if apply != nil {
			if err := apply(tx, o, now, p); err != nil {
				return err
			}
		}
		if err := p.Apply(tx, o); err != nil {
			return fmt.Errorf("%s sales order: %w", action, err)
		}
		o.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, action, o.ID, o.Number, string(o.Status))
	return s.Get(ctx, id)
}

func (s *Service) Submit(ctx context.Context, id uint) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionSubmit, nil)
}

func (s *Service) Confirm(ctx context.Context, id uint, userID string) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionConfirm, func(_ *gorm.DB, _ *models.SalesOrder, now time.Time, p query.Patch) error {
		p.Put("confirmed_at", now)
		p.Put("confirmed_by", actor(userID))
		return nil
	})
}

func (s *Service) Process(ctx context.Context, id uint) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionProcess, nil)
}

// ShipInput is the body of POST /sales-orders/{id}/ship.
type ShipInput struct {
	TrackingNumber string `json:"trackingNumber" validate:"max=100"`
	Carrier        string `json:"carrier" validate:"max=100"`
	Partial        bool   `json:"partial"`
}

// Ship records a full or partial shipment. On a full shipment every line
// is marked as shipped in full.
func (s *Service) Ship(ctx context.Context, id uint, in ShipInput) (*models.SalesOrder, error) {
	action := ActionShip
	if in.Partial {
		action = ActionShipPartial
	}
	return s.transition(ctx, id, action, func(tx *gorm.DB, o *models.SalesOrder, now time.Time, p query.Patch) error {
		if o.ShippedAt == nil {
			p.Put("shipped_at", now)
		}
		if in.TrackingNumber != "" {
			p.Put("tracking_number", in.TrackingNumber)
		}
		if in.Carrier != "" {
			p.Put("carrier", in.Carrier)
		}
		if in.Partial {
			return nil
		}
		err := tx.Model(&models.SalesOrderItem{}).
			Where("sales_order_id = ?", o.ID).
			Update("quantity_shipped", gorm.Expr("quantity")).Error
		if err != nil {
			return fmt.Errorf("mark items shipped: %w", err)
		}
		return nil
	})
}

// DeliverInput is the body of POST /sales-orders/{id}/deliver.
type DeliverInput struct {
	Partial bool `json:"partial"`
}

func (s *Service) Deliver(ctx context.Context, id uint, in DeliverInput) (*models.SalesOrder, error) {
	action := ActionDeliver
	if in.Partial {
		action = ActionDeliverPartial
	}
	return s.transition(ctx, id, action, func(_ *gorm.DB, _ *models.SalesOrder, now time.Time, p query.Patch) error {
		if !in.Partial {
			p.Put("delivered_at", now)
		}
		return nil
	})
}

func (s *Service) Complete(ctx context.Context, id uint) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionComplete, func(_ *gorm.DB, _ *models.SalesOrder, now time.Time, p query.Patch) error {
		p.Put("completed_at", now)
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, id uint, userID, reason string) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionCancel, func(_ *gorm.DB, _ *models.SalesOrder, now time.Time, p query.Patch) error {
		p.Put("cancelled_at", now)
		p.Put("cancelled_by", actor(userID))
		p.Put("cancel_reason", reason)
		return nil
	})
}

// Return takes back a delivered or completed order. Any money received is
// marked as refunded.
func (s *Service) Return(ctx context.Context, id uint, reason string) (*models.SalesOrder, error) {
	return s.transition(ctx, id, ActionReturn, func(_ *gorm.DB, o *models.SalesOrder, now time.Time, p query.Patch) error {
		p.Put("returned_at", now)
		p.Put("return_reason", reason)
		if o.AmountPaid.IsPositive() {
			p.Put("payment_status", models.PaymentRefunded)
		}
		return nil
	})
}

func (s *Service) Actions(ctx context.Context, id uint) ([]string, error) {
	o, err := services.Find[models.SalesOrder](s.Conn(ctx), entity, id)
	if err != nil {
		return nil, err
	}
	out := Machine.Actions(o.Status)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
