// Package content implements the CMS: versioned articles, categories, tags
// and view tracking.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/utils"
)

const entity = "content"

const DefaultPageSize = 50

const (
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionArchive   = "archive"
)

var Machine = lifecycle.New("content", map[string]lifecycle.Transition[models.ContentStatus]{
	ActionPublish:   {From: []models.ContentStatus{models.ContentDraft, models.ContentArchived}, To: models.ContentPublished},
	ActionUnpublish: {From: []models.ContentStatus{models.ContentPublished}, To: models.ContentDraft},
	ActionArchive:   {From: []models.ContentStatus{models.ContentDraft, models.ContentPublished}, To: models.ContentArchived},
}, models.ContentDraft, models.ContentPublished, models.ContentArchived)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"title":       "title",
		"status":      "status",
		"publishedAt": "published_at",
		"viewCount":   "view_count",
		"createdAt":   "created_at",
		"updatedAt":   "updated_at",
	},
	Default: "updated_at DESC, id DESC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	Title       string               `json:"title" validate:"required,max=255"`
	Slug        string               `json:"slug" validate:"omitempty,max=255"`
	Excerpt     string               `json:"excerpt"`
	Body        string               `json:"body"`
	Status      models.ContentStatus `json:"status" validate:"omitempty,oneof=draft published"`
	Metadata    json.RawMessage      `json:"metadata"`
	CategoryIDs []uint               `json:"categoryIds"`
	Tags        []string             `json:"tags" validate:"dive,max=60"`
	AuthorID    string               `json:"-"`
}

// UpdateInput edits an article. Nil CategoryIDs or Tags leave the links alone.
type UpdateInput struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Slug        *string         `json:"slug" validate:"omitempty,min=1,max=255"`
	Excerpt     *string         `json:"excerpt"`
	Body        *string         `json:"body"`
	Metadata    json.RawMessage `json:"metadata"`
	CategoryIDs []uint          `json:"categoryIds"`
	Tags        []string        `json:"tags" validate:"omitempty,dive,max=60"`
	EditorID    string          `json:"-"`
}

type Filter struct {
	SearchText string
	Status     string
	CategoryID *uint
	Tag        string
	AuthorID   string
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Content], error) {
	q := query.NewFilter().
		Search(f.SearchText, "title", "excerpt").
		Eq("status", f.Status).
		Eq("author_id", f.AuthorID)
	if f.CategoryID != nil {
		q.Where("id IN (SELECT content_id FROM content_category_links WHERE content_category_id = ?)", *f.CategoryID)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q.Where(`id IN (SELECT l.content_id FROM content_tag_links l
			JOIN content_tags t ON t.id = l.content_tag_id WHERE t.name = ?)`, tag)
	}
	return query.List[models.Content](s.Conn(ctx), q, p, sortColumns, "Categories", "Tags")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Content, error) {
	return services.Find[models.Content](s.Conn(ctx), entity, id, "Categories", "Tags")
}

// GetBySlug returns published content only.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	var c models.Content
	err := s.Conn(ctx).Preload("Categories").Preload("Tags").
		Where("slug = ? AND status = ?", slug, models.ContentPublished).
		First(&c).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, slug)
	}
	return &c, nil
}

func metadata(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, apperr.Validation("metadata must be valid JSON")
	}
	return datatypes.JSON(raw), nil
}

// uniqueSlug returns base, or base-2, base-3... when taken by another row.
// Soft-deleted rows keep their slug.
func uniqueSlug(tx *gorm.DB, base string, exclude uint) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var n int64
		err := tx.Unscoped().Model(&models.Content{}).Where("slug = ? AND id <> ?", slug, exclude).Count(&n).Error
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func checkSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return apperr.Validation("invalid slug %q", slug)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Content, error) {
	meta, err := metadata(in.Metadata)
	if err != nil {
		return nil, err
	}
	c := &models.Content{
		Title:    in.Title,
		Excerpt:  in.Excerpt,
		Body:     in.Body,
		Status:   in.Status,
		AuthorID: in.AuthorID,
		Version:  1,
		Metadata: meta,
	}
	if c.Status == "" {
		c.Status = models.ContentDraft
	}
	if c.Status == models.ContentPublished {
		now := s.Now()
		c.PublishedAt = &now
	}

	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if in.Slug != "" {
			if err := checkSlug(in.Slug); err != nil {
				return err
			}
			c.Slug = in.Slug
		} else {
			base := utils.Slugify(in.Title)
			if base == "" {
				return apperr.Validation("cannot derive a slug from title %q", in.Title)
			}
			var err error
			if c.Slug, err = uniqueSlug(tx, base, 0); err != nil {
				return err
			}
		}
		if err := tx.Omit("Categories", "Tags").Create(c).Error; err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.Validation("slug already exists")
			}
			return fmt.Errorf("failed to create content: %w", err)
		}
		return link(tx, c, in.CategoryIDs, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, c.ID)
}

// link replaces the category and tag sets when given. Junction rows that
// drop out are deleted.
func link(tx *gorm.DB, c *models.Content, categoryIDs []uint, tags []string) error {
	if categoryIDs != nil {
		cats, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}
		if err := replace(tx.Model(c).Association("Categories"), cats, len(cats)); err != nil {
			return fmt.Errorf("link categories: %w", err)
		}
	}
	if tags != nil {
		ts, err := ensureTags(tx, tags)
		if err != nil {
			return err
		}
		if err := replace(tx.Model(c).Association("Tags"), ts, len(ts)); err != nil {
			return fmt.Errorf("link tags: %w", err)
		}
	}
	return nil
}

func replace(a *gorm.Association, values any, n int) error {
	if n == 0 {
		return a.Clear()
	}
	return a.Replace(values)
}

func loadCategories(tx *gorm.DB, ids []uint) ([]models.ContentCategory, error) {
	cats := []models.ContentCategory{}
	if len(ids) == 0 {
		return cats, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	found := make(map[uint]bool, len(cats))
	for _, c := range cats {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NotFound("category", id)
		}
	}
	return cats, nil
}

// ensureTags finds or creates each named tag.
func ensureTags(tx *gorm.DB, names []string) ([]models.ContentTag, error) {
	out := []models.ContentTag{}
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		tag := models.ContentTag{Name: n}
		if err := tx.Where("name = ?", n).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("tag %q: %w", n, err)
		}
		out = append(out, tag)
	}
	return out, nil
}

// Update edits an article. A change to title, excerpt or body stores the
// previous text as a version and bumps the version number.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Content, error) {
	meta, err := metadata(in.Metadata)
	if err != nil {
		return nil, err
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		c, err := services.FindForUpdate[models.Content](tx, entity, id)
		if err != nil {
			return err
		}
		p := query.Patch{}
		if in.Slug != nil && *in.Slug != c.Slug {
			if err := checkSlug(*in.Slug); err != nil {
				return err
			}
			p.Put("slug", *in.Slug)
		}
		if meta != nil {
			p.Put("metadata", meta)
		}
		next := snapshotOf(c)
		if in.Title != nil {
			next.Title = *in.Title
		}
		if in.Excerpt != nil {
			next.Excerpt = *in.Excerpt
		}
		if in.Body != nil {
			next.Body = *in.Body
		}
		if next != snapshotOf(c) {
			if err := s.revise(tx, c, next, in.EditorID, p); err != nil {
				return err
			}
		}

		linking := in.CategoryIDs != nil || in.Tags != nil
		if p.Empty() && !linking {
			return apperr.Validation("no fields to update")
		}
		if err := p.Apply(tx, c); err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.Validation("slug already exists")
			}
			return fmt.Errorf("update content: %w", err)
		}
		return link(tx, c, in.CategoryIDs, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func snapshotOf(c *models.Content) models.ContentSnapshot {
	return models.ContentSnapshot{Title: c.Title, Excerpt: c.Excerpt, Body: c.Body}
}

// revise stores c's current text as version c.Version and stages next.
func (s *Service) revise(tx *gorm.DB, c *models.Content, next models.ContentSnapshot, editor string, p query.Patch) error {
	v := &models.ContentVersion{
		ContentID: c.ID,
		Version:   c.Version,
		Snapshot:  datatypes.NewJSONType(snapshotOf(c)),
		EditedBy:  editor,
		CreatedAt: s.Now(),
	}
	if err := tx.Create(v).Error; err != nil {
		return fmt.Errorf("store version: %w", err)
	}
	p.Put("title", next.Title)
	p.Put("excerpt", next.Excerpt)
	p.Put("body", next.Body)
	p.Put("version", c.Version+1)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Content](s.Conn(ctx), entity, id)
}

// Versions lists stored revisions, newest first.
func (s *Service) Versions(ctx context.Context, id uint) ([]models.ContentVersion, error) {
	db := s.Conn(ctx)
	if err := services.MustExist[models.Content](db, entity, id); err != nil {
		return nil, err
	}
	out := []models.ContentVersion{}
	if err := db.Where("content_id = ?", id).Order("version DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

// Restore brings back the text of version v. The text being replaced is
// itself kept as a version, so a restore can be undone.
func (s *Service) Restore(ctx context.Context, id uint, version int, editor string) (*models.Content, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		c, err := services.FindForUpdate[models.Content](tx, entity, id)
		if err != nil {
			return err
		}
		var v models.ContentVersion
		if err := tx.Where("content_id = ? AND version = ?", id, version).First(&v).Error; err != nil {
			return apperr.FromDB(err, "content version", version)
		}
		p := query.Patch{}
		if err := s.revise(tx, c, v.Snapshot.Data(), editor, p); err != nil {
			return err
		}
		return p.Apply(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
