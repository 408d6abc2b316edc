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

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Description string `json:"description"`
}

type CategoryUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description"`
}

func (s *Service) Categories(ctx context.Context) ([]models.ContentCategory, error) {
	out := []models.ContentCategory{}
	if err := s.Conn(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.ContentCategory, error) {
	c := &models.ContentCategory{Name: in.Name, Slug: in.Slug, Description: in.Description}
	if c.Slug == "" {
		c.Slug = utils.Slugify(in.Name)
	}
	if err := checkSlug(c.Slug); err != nil {
		return nil, err
	}
	if err := s.Conn(ctx).Create(c).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Validation("category slug already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, in CategoryUpdate) (*models.ContentCategory, error) {
	if in.Slug != nil {
		if err := checkSlug(*in.Slug); err != nil {
			return nil, err
		}
	}
	p := query.Patch{}
	query.Set(p, "name", in.Name)
	query.Set(p, "slug", in.Slug)
	query.Set(p, "description", in.Description)
	c, err := services.Update[models.ContentCategory](s.Conn(ctx), "category", id, p)
	if apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Validation("category slug already exists")
	}
	return c, err
}

// DeleteCategory soft-deletes the category and removes its article links.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	return s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.SoftDelete[models.ContentCategory](tx, "category", id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM content_category_links WHERE content_category_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink category: %w", err)
		}
		return nil
	})
}

// TagUsage is a tag with the number of live articles carrying it.
type TagUsage struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (s *Service) Tags(ctx context.Context) ([]TagUsage, error) {
	out := []TagUsage{}
	err := s.Conn(ctx).Table("content_tags t").
		Select("t.id, t.name, COUNT(c.id) AS count").
		Joins("LEFT JOIN content_tag_links l ON l.content_tag_id = t.id").
		Joins("LEFT JOIN contents c ON c.id = l.content_id AND c.deleted_at IS NULL").
		Group("t.id, t.name").
		Order("t.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

type TagInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

func (s *Service) CreateTag(ctx context.Context, in TagInput) (*models.ContentTag, error) {
	var tag *models.ContentTag
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		tags, err := ensureTags(tx, []string{in.Name})
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			return apperr.Validation("tag name is required")
		}
		tag = &tags[0]
		return nil
	})
	return tag, err
}

// DeleteTag removes a tag and its links outright.
func (s *Service) DeleteTag(ctx context.Context, id uint) error {
	return s.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM content_tag_links WHERE content_tag_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink tag: %w", err)
		}
		res := tx.Delete(&models.ContentTag{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete tag: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("tag", id)
		}
		return nil
	})
}
