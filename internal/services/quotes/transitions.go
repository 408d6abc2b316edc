package quotes

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/numbering"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

// step describes one lifecycle action. before runs ahead of the status
// check, apply after it; both run inside the transaction with the row locked.
type step struct {
	action string
	before func(q *models.Quote, now time.Time) error
	apply  func(tx *gorm.DB, q *models.Quote, now time.Time, p query.Patch) error
}

func (s *Service) transition(ctx context.Context, id uint, st step) (*models.Quote, error) {
	now := s.Now()
	var q *models.Quote
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if q, err = services.FindForUpdate[models.Quote](tx, entity, id); err != nil {
			return err
		}
		if st.before != nil {
			if err := st.before(q, now); err != nil {
				return err
			}
		}
		next, err := Machine.Next(st.action, q.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if st.apply != nil {
			if err := st.apply(tx, q, now, p); err != nil {
				return err
			}
		}
		if err := p.Apply(tx, q); err != nil {
			return fmt.Errorf("%s quote: %w", st.action, err)
		}
		q.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, st.action, q.ID, q.Number, string(q.Status))
	return s.Get(ctx, id)
}

// Send marks the quote as sent to the client.
func (s *Service) Send(ctx context.Context, id uint, userID string) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionSend,
		apply: func(_ *gorm.DB, _ *models.Quote, now time.Time, p query.Patch) error {
			p.Put("sent_at", now)
			p.Put("sent_by", actor(userID))
			return nil
		},
	})
}

// View records that the client opened the quote. Repeated views keep the
// first timestamp.
func (s *Service) View(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionView,
		apply: func(_ *gorm.DB, q *models.Quote, now time.Time, p query.Patch) error {
			if q.ViewedAt == nil {
				p.Put("viewed_at", now)
			}
			return nil
		},
	})
}

// Accept accepts the quote. An expired validity window always fails.
func (s *Service) Accept(ctx context.Context, id uint, userID string) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionAccept,
		before: func(q *models.Quote, now time.Time) error {
			if q.IsExpiredAt(now) {
				return apperr.InvalidState(string(q.Status), "cannot accept expired quote")
			}
			return nil
		},
		apply: func(_ *gorm.DB, _ *models.Quote, now time.Time, p query.Patch) error {
			p.Put("accepted_at", now)
			p.Put("accepted_by", actor(userID))
			return nil
		},
	})
}

// Reject closes the quote with a reason.
func (s *Service) Reject(ctx context.Context, id uint, userID, reason string) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionReject,
		apply: func(_ *gorm.DB, _ *models.Quote, now time.Time, p query.Patch) error {
			p.Put("rejected_at", now)
			p.Put("rejected_by", actor(userID))
			p.Put("rejection_reason", reason)
			return nil
		},
	})
}

// Expire closes an open quote whose validity window has ended.
func (s *Service) Expire(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionExpire,
		apply: func(_ *gorm.DB, q *models.Quote, now time.Time, p query.Patch) error {
			if !q.IsExpiredAt(now) {
				return apperr.Validation("quote is valid until %s", q.ValidUntil.Format(time.DateOnly))
			}
			p.Put("expired_at", now)
			return nil
		},
	})
}

// Convert turns an accepted quote into a pending sales order carrying the
// same lines and totals. Both rows are written in one transaction.
func (s *Service) Convert(ctx context.Context, id uint, userID string) (*models.Quote, error) {
	return s.transition(ctx, id, step{
		action: ActionConvert,
		apply: func(tx *gorm.DB, q *models.Quote, now time.Time, p query.Patch) error {
			var items []models.QuoteItem
			if err := tx.Where("quote_id = ?", q.ID).Order("line_number").Find(&items).Error; err != nil {
				return fmt.Errorf("load quote items: %w", err)
			}
			order := &models.SalesOrder{
				QuoteID:       &q.ID,
				CompanyID:     q.CompanyID,
				Status:        models.OrderPending,
				PaymentStatus: models.PaymentUnpaid,
				OrderDate:     now,
				Currency:      q.Currency,
				Totals:        q.Totals,
				Notes:         q.Notes,
				OwnerID:       userID,
				Items:         make([]models.SalesOrderItem, len(items)),
			}
			for i, it := range items {
				order.Items[i] = models.SalesOrderItem{LineItem: services.CopyLine(it.LineItem)}
			}
			var err error
			if order.Number, err = numbering.Yearly(tx, numbering.ScopeSalesOrder, now); err != nil {
				return err
			}
			if err := tx.Create(order).Error; err != nil {
				return fmt.Errorf("create sales order: %w", err)
			}
			p.Put("converted_at", now)
			p.Put("converted_by", actor(userID))
			p.Put("sales_order_id", order.ID)
			return nil
		},
	})
}

// Actions lists the lifecycle actions currently legal for the quote.
func (s *Service) Actions(ctx context.Context, id uint) ([]string, error) {
	q, err := services.Find[models.Quote](s.Conn(ctx), entity, id)
	if err != nil {
		return nil, err
	}
	out := Machine.Actions(q.Status)
	if q.IsExpiredAt(s.Now()) {
		out = without(out, ActionAccept)
	} else {
		out = without(out, ActionExpire)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func without(list []string, drop string) []string {
	out := list[:0]
	for _, a := range list {
		if a != drop {
			out = append(out, a)
		}
	}
	return out
}
