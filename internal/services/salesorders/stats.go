package salesorders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/models"
)

type StatusTotal struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type Stats struct {
	Total       int64           `json:"total"`
	ByStatus    []StatusTotal   `json:"byStatus"`
	Revenue     decimal.Decimal `json:"revenue"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Stats aggregates orders. Revenue counts delivered and completed orders.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	var rows []StatusTotal
	err := db.Model(&models.SalesOrder{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sales order stats: %w", err)
	}
	out := &Stats{ByStatus: rows}
	if out.ByStatus == nil {
		out.ByStatus = []StatusTotal{}
	}
	for _, r := range rows {
		out.Total += r.Count
	}
	if out.Revenue, err = Revenue(db); err != nil {
		return nil, err
	}
	var open struct{ Total, Paid decimal.Decimal }
	err = db.Model(&models.SalesOrder{}).
		Select("COALESCE(SUM(total), 0) AS total, COALESCE(SUM(amount_paid), 0) AS paid").
		Where("status NOT IN ?", []models.SalesOrderStatus{models.OrderCancelled, models.OrderReturned, models.OrderDraft}).
		Scan(&open).Error
	if err != nil {
		return nil, fmt.Errorf("outstanding balance: %w", err)
	}
	out.Outstanding = open.Total.Sub(open.Paid)
	return out, nil
}

// Revenue sums the totals of delivered and completed orders.
func Revenue(db *gorm.DB) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.Model(&models.SalesOrder{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("status IN ?", []models.SalesOrderStatus{models.OrderDelivered, models.OrderCompleted}).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue: %w", err)
	}
	return row.Total, nil
}
