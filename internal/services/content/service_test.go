package content

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

var firstPage = query.PageRequest{Page: 1, PageSize: 50}

func newService(t *testing.T) *Service {
	b, _ := servicetest.Base(t)
	return NewService(b)
}

func strPtr(s string) *string { return &s }

func TestCreateDerivesUniqueSlug(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	a, err := s.Create(ctx, CreateInput{Title: "Hello, Wörld!", AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", a.Slug)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, models.ContentDraft, a.Status)
	assert.Nil(t, a.PublishedAt)

	b, err := s.Create(ctx, CreateInput{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", b.Slug)

	_, err = s.Create(ctx, CreateInput{Title: "Other", Slug: "hello-world"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Create(ctx, CreateInput{Title: "Bad", Slug: "Not A Slug"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Create(ctx, CreateInput{Title: "Meta", Metadata: json.RawMessage(`{"seo":`)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateStoresVersions(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	c, err := s.Create(ctx, CreateInput{Title: "First", Body: "one"})
	require.NoError(t, err)

	got, err := s.Update(ctx, c.ID, UpdateInput{Body: strPtr("two"), EditorID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "two", got.Body)

	got, err = s.Update(ctx, c.ID, UpdateInput{Title: strPtr("Second")})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)

	// unchanged text does not create a version
	_, err = s.Update(ctx, c.ID, UpdateInput{Title: strPtr("Second"), Metadata: json.RawMessage(`{"k":1}`)})
	require.NoError(t, err)

	versions, err := s.Versions(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, "two", versions[0].Snapshot.Data().Body)
	assert.Equal(t, "one", versions[1].Snapshot.Data().Body)
	assert.Equal(t, "u2", versions[1].EditedBy)

	restored, err := s.Restore(ctx, c.ID, 1, "u3")
	require.NoError(t, err)
	assert.Equal(t, "First", restored.Title)
	assert.Equal(t, "one", restored.Body)
	assert.Equal(t, 4, restored.Version)

	_, err = s.Restore(ctx, c.ID, 42, "u3")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.Update(ctx, c.ID, UpdateInput{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPublishAndView(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	c, err := s.Create(ctx, CreateInput{Title: "News"})
	require.NoError(t, err)

	_, err = s.RecordView(ctx, c.ID, ViewInput{IP: "10.0.0.1"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = s.GetBySlug(ctx, "news")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	pub, err := s.Publish(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, pub.PublishedAt)

	for i := 0; i < 3; i++ {
		_, err := s.RecordView(ctx, c.ID, ViewInput{IP: "10.0.0.1", UserAgent: "test"})
		require.NoError(t, err)
	}
	n, err := s.RecordView(ctx, c.ID, ViewInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	var views []models.ContentView
	require.NoError(t, s.DB.Where("content_id = ?", c.ID).Find(&views).Error)
	require.Len(t, views, 4)
	assert.Len(t, views[0].IPHash, 64)
	assert.NotContains(t, views[0].IPHash, "10.0.0.1")

	bySlug, err := s.GetBySlug(ctx, "news")
	require.NoError(t, err)
	assert.EqualValues(t, 4, bySlug.ViewCount)

	_, err = s.Publish(ctx, c.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	arch, err := s.Archive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentArchived, arch.Status)
}

func TestCategoriesAndTags(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, CategoryInput{Name: "Product News"})
	require.NoError(t, err)
	assert.Equal(t, "product-news", cat.Slug)

	a, err := s.Create(ctx, CreateInput{Title: "A", CategoryIDs: []uint{cat.ID}, Tags: []string{"go", "release", "go"}})
	require.NoError(t, err)
	assert.Len(t, a.Categories, 1)
	assert.Len(t, a.Tags, 2)
	_, err = s.Create(ctx, CreateInput{Title: "B", Tags: []string{"go"}})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateInput{Title: "C", CategoryIDs: []uint{999}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	page, err := s.List(ctx, Filter{Tag: "go"}, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = s.List(ctx, Filter{CategoryID: &cat.ID}, firstPage)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "A", page.Data[0].Title)

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	assert.EqualValues(t, 2, tags[0].Count)

	got, err := s.Update(ctx, a.ID, UpdateInput{Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	var links int64
	require.NoError(t, s.DB.Table("content_tag_links").Where("content_id = ?", a.ID).Count(&links).Error)
	assert.Zero(t, links)

	require.NoError(t, s.DeleteCategory(ctx, cat.ID))
	require.NoError(t, s.DB.Table("content_category_links").Count(&links).Error)
	assert.Zero(t, links)
	require.NoError(t, s.DeleteTag(ctx, tags[0].ID))
	assert.True(t, apperr.IsKind(s.DeleteTag(ctx, tags[0].ID), apperr.KindNotFound))
}
