package content

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/utils"
)

func (s *Service) transition(ctx context.Context, id uint, action string) (*models.Content, error) {
	var c *models.Content
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if c, err = services.FindForUpdate[models.Content](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(action, c.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if next == models.ContentPublished && c.PublishedAt == nil {
			p.Put("published_at", s.Now())
		}
		c.Status = next
		return p.Apply(tx, c)
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, action, c.ID, c.Slug, string(c.Status))
	return s.Get(ctx, id)
}

// Publish makes content public. The first publication date is kept on republish.
func (s *Service) Publish(ctx context.Context, id uint) (*models.Content, error) {
	return s.transition(ctx, id, ActionPublish)
}

func (s *Service) Unpublish(ctx context.Context, id uint) (*models.Content, error) {
	return s.transition(ctx, id, ActionUnpublish)
}

func (s *Service) Archive(ctx context.Context, id uint) (*models.Content, error) {
	return s.transition(ctx, id, ActionArchive)
}

// ViewInput identifies the reader. The IP is stored hashed.
type ViewInput struct {
	IP        string
	UserAgent string
}

// RecordView logs a read of published content and returns the new view count.
// The counter is incremented in SQL.
func (s *Service) RecordView(ctx context.Context, id uint, in ViewInput) (int64, error) {
	var count int64
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		c, err := services.Find[models.Content](tx, entity, id)
		if err != nil {
			return err
		}
		if c.Status != models.ContentPublished {
			return apperr.NotFound(entity, id)
		}
		ua := in.UserAgent
		if len(ua) > 255 {
			ua = ua[:255]
		}
		view := &models.ContentView{ContentID: id, UserAgent: ua, ViewedAt: s.Now()}
		if in.IP != "" {
			view.IPHash = utils.HashKey("content-view", in.IP)
		}
		if err := tx.Create(view).Error; err != nil {
			return fmt.Errorf("record view: %w", err)
		}
		if err := tx.Model(c).UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("count view: %w", err)
		}
		return tx.Model(&models.Content{}).Select("view_count").Where("id = ?", id).Scan(&count).Error
	})
	return count, err
}
