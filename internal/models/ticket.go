package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TicketStatus is the handling state of an inbound request
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketPriority orders the support queue
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket is a request received through the public intake form
type Ticket struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Reference  string         `gorm:"uniqueIndex;size:32;not null" json:"reference"`
	Name       string         `gorm:"size:200;not null" json:"name"`
	Email      string         `gorm:"size:255;not null;index" json:"email"`
	Company    string         `gorm:"size:200" json:"company"`
	Subject    string         `gorm:"size:255;not null" json:"subject"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	Source     string         `gorm:"size:50;default:'web'" json:"source"`
	Status     TicketStatus   `gorm:"size:16;not null;default:'open';index" json:"status"`
	Priority   TicketPriority `gorm:"size:16;not null;default:'normal';index" json:"priority"`
	AssigneeID *string        `gorm:"size:36;index" json:"assigneeId,omitempty"`
	ClientIP   string         `gorm:"size:64" json:"-"`
	Payload    datatypes.JSON `json:"payload,omitempty"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Ticket) TableName() string { return "tickets" }
