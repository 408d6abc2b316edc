// Package dashboard aggregates headline numbers across modules.
package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/expenses"
	"github.com/xelth-com/eckbiz/internal/services/products"
	"github.com/xelth-com/eckbiz/internal/services/quotes"
	"github.com/xelth-com/eckbiz/internal/services/salesorders"
	"github.com/xelth-com/eckbiz/internal/services/tickets"
)

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type Stats struct {
	Companies        int64           `json:"companies"`
	ActiveCompanies  int64           `json:"activeCompanies"`
	Employees        int64           `json:"employees"`
	Products         int64           `json:"products"`
	LowStockProducts int64           `json:"lowStockProducts"`
	OpenQuotes       int64           `json:"openQuotes"`
	PipelineValue    decimal.Decimal `json:"pipelineValue"`
	OpenSalesOrders  int64           `json:"openSalesOrders"`
	Revenue          decimal.Decimal `json:"revenue"`
	PendingExpenses  int64           `json:"pendingExpenses"`
	OpenTickets      int64           `json:"openTickets"`
	PublishedContent int64           `json:"publishedContent"`
}

var openOrders = []models.SalesOrderStatus{
	models.OrderPending,
	models.OrderConfirmed,
	models.OrderProcessing,
	models.OrderShipped,
	models.OrderPartiallyShipped,
	models.OrderPartiallyDelivered,
}

func count(db *gorm.DB, model any, dst *int64, where ...any) func() error {
	return func() error {
		q := db.Model(model)
		if len(where) > 0 {
			q = q.Where(where[0], where[1:]...)
		}
		if err := q.Count(dst).Error; err != nil {
			return fmt.Errorf("dashboard count: %w", err)
		}
		return nil
	}
}

// Stats runs the module aggregates concurrently. Each query fills its own field.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	g, gctx := errgroup.WithContext(ctx)
	db := s.Conn(gctx)

	g.Go(count(db, &models.Company{}, &out.Companies))
	g.Go(count(db, &models.Company{}, &out.ActiveCompanies, "status = ?", models.StatusActive))
	g.Go(count(db, &models.Employee{}, &out.Employees, "status <> ?", models.EmployeeTerminated))
	g.Go(count(db, &models.Product{}, &out.Products, "is_active = ?", true))
	g.Go(count(db, &models.SalesOrder{}, &out.OpenSalesOrders, "status IN ?", openOrders))
	g.Go(count(db, &models.Content{}, &out.PublishedContent, "status = ?", models.ContentPublished))
	g.Go(func() (err error) {
		out.LowStockProducts, err = products.LowStockCount(db)
		return err
	})
	g.Go(func() error {
		rows, err := quotes.ByStatus(db)
		if err != nil {
			return err
		}
		out.PipelineValue = decimal.Zero
		for _, r := range rows {
			switch models.QuoteStatus(r.Status) {
			case models.QuoteDraft, models.QuoteSent, models.QuoteViewed, models.QuoteAccepted:
				out.OpenQuotes += r.Count
			}
			switch models.QuoteStatus(r.Status) {
			case models.QuoteSent, models.QuoteViewed:
				out.PipelineValue = out.PipelineValue.Add(r.Total)
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		out.Revenue, err = salesorders.Revenue(db)
		return err
	})
	g.Go(func() (err error) {
		out.PendingExpenses, err = expenses.PendingApproval(db)
		return err
	})
	g.Go(func() (err error) {
		out.OpenTickets, err = tickets.OpenCount(db)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
