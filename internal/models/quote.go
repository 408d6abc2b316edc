package models

import (
	"time"

	"gorm.io/gorm"
)

// QuoteStatus is the quote lifecycle state
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteViewed    QuoteStatus = "viewed"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteExpired   QuoteStatus = "expired"
	QuoteConverted QuoteStatus = "converted"
)

// Quote is a priced offer to a client company
type Quote struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Number     string      `gorm:"uniqueIndex;size:32;not null" json:"number"`
	CompanyID  uint        `gorm:"not null;index" json:"companyId"`
	ContactID  *uint       `gorm:"index" json:"contactId,omitempty"`
	Status     QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	IssueDate  time.Time   `gorm:"not null;index" json:"issueDate"`
	ValidUntil time.Time   `gorm:"not null" json:"validUntil"`
	Currency   string      `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Totals
	Notes   string `gorm:"type:text" json:"notes"`
	Terms   string `gorm:"type:text" json:"terms"`
	OwnerID string `gorm:"size:36;index" json:"ownerId"`

	SentAt          *time.Time `json:"sentAt,omitempty"`
	SentBy          *string    `gorm:"size:36" json:"sentBy,omitempty"`
	ViewedAt        *time.Time `json:"viewedAt,omitempty"`
	AcceptedAt      *time.Time `json:"acceptedAt,omitempty"`
	AcceptedBy      *string    `gorm:"size:36" json:"acceptedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy      *string    `gorm:"size:36" json:"rejectedBy,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	ExpiredAt       *time.Time `json:"expiredAt,omitempty"`
	ConvertedAt     *time.Time `json:"convertedAt,omitempty"`
	ConvertedBy     *string    `gorm:"size:36" json:"convertedBy,omitempty"`
	SalesOrderID    *uint      `gorm:"index" json:"salesOrderId,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items   []QuoteItem `gorm:"foreignKey:QuoteID" json:"items"`
	Company *Company    `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (Quote) TableName() string { return "quotes" }

// IsExpiredAt reports whether the validity window ended before now.
func (q *Quote) IsExpiredAt(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// QuoteItem is one line of a quote
type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	QuoteID uint `gorm:"not null;index" json:"quoteId"`
	LineItem

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (QuoteItem) TableName() string { return "quote_items" }
