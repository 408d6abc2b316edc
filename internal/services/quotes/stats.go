package quotes

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/models"
)

// StatusTotal is the count and value of quotes in one status.
type StatusTotal struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type Stats struct {
	Total          int64           `json:"total"`
	ByStatus       []StatusTotal   `json:"byStatus"`
	PipelineValue  decimal.Decimal `json:"pipelineValue"`
	AcceptanceRate float64         `json:"acceptanceRate"`
}

// Stats aggregates quotes by status. The acceptance rate is the share of
// decided quotes (accepted, converted or rejected) that were accepted, in percent.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := ByStatus(s.Conn(ctx))
	if err != nil {
		return nil, err
	}
	out := &Stats{ByStatus: rows}
	var won, lost int64
	for _, r := range rows {
		out.Total += r.Count
		switch models.QuoteStatus(r.Status) {
		case models.QuoteSent, models.QuoteViewed:
			out.PipelineValue = out.PipelineValue.Add(r.Total)
		case models.QuoteAccepted, models.QuoteConverted:
			won += r.Count
		case models.QuoteRejected:
			lost += r.Count
		}
	}
	if won+lost > 0 {
		rate := decimal.NewFromInt(won * 100).Div(decimal.NewFromInt(won + lost)).Round(2)
		out.AcceptanceRate = rate.InexactFloat64()
	}
	return out, nil
}

// ByStatus sums live quotes per status.
func ByStatus(db *gorm.DB) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := db.Model(&models.Quote{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("quote stats: %w", err)
	}
	if rows == nil {
		rows = []StatusTotal{}
	}
	return rows, nil
}
