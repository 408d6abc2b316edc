package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentStatus is the publication state of an article
type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentPublished ContentStatus = "published"
	ContentArchived  ContentStatus = "archived"
)

// Content is a versioned CMS article
type Content struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Excerpt     string         `gorm:"type:text" json:"excerpt"`
	Body        string         `gorm:"type:text" json:"body"`
	Status      ContentStatus  `gorm:"size:20;not null;default:'draft';index" json:"status"`
	AuthorID    string         `gorm:"size:36;index" json:"authorId"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	Version     int            `gorm:"not null;default:1" json:"version"`
	ViewCount   int64          `gorm:"not null;default:0" json:"viewCount"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Categories []ContentCategory `gorm:"many2many:content_category_links;" json:"categories,omitempty"`
	Tags       []ContentTag      `gorm:"many2many:content_tag_links;" json:"tags,omitempty"`
}

func (Content) TableName() string { return "contents" }

// ContentSnapshot is the state captured before an edit
type ContentSnapshot struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// ContentVersion stores a previous revision of an article
type ContentVersion struct {
	ID        uint                                `gorm:"primaryKey" json:"id"`
	ContentID uint                                `gorm:"not null;uniqueIndex:idx_content_version" json:"contentId"`
	Version   int                                 `gorm:"not null;uniqueIndex:idx_content_version" json:"version"`
	Snapshot  datatypes.JSONType[ContentSnapshot] `json:"snapshot"`
	EditedBy  string                              `gorm:"size:36" json:"editedBy"`
	CreatedAt time.Time                           `json:"createdAt"`
}

func (ContentVersion) TableName() string { return "content_versions" }

// ContentCategory groups articles
type ContentCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ContentCategory) TableName() string { return "content_categories" }

// ContentTag is a free-form label
type ContentTag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:60;not null" json:"name"`

	CreatedAt time.Time `json:"createdAt"`
}

func (ContentTag) TableName() string { return "content_tags" }

// ContentView is one recorded read of a published article
type ContentView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContentID uint      `gorm:"not null;index" json:"contentId"`
	IPHash    string    `gorm:"column:ip_hash;size:64" json:"ipHash"`
	UserAgent string    `gorm:"size:255" json:"userAgent"`
	ViewedAt  time.Time `gorm:"not null;index" json:"viewedAt"`
}

func (ContentView) TableName() string { return "content_views" }
