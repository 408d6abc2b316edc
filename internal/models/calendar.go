package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType classifies calendar entries
type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventTask     EventType = "task"
	EventReminder EventType = "reminder"
	EventHoliday  EventType = "holiday"
)

// CalendarEvent is a scheduled entry with employee attendees
type CalendarEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:200" json:"location"`
	StartsAt    time.Time `gorm:"not null;index" json:"startsAt"`
	EndsAt      time.Time `gorm:"not null;index" json:"endsAt"`
	AllDay      bool      `gorm:"not null;default:false" json:"allDay"`
	Type        EventType `gorm:"size:20;not null;default:'meeting';index" json:"type"`
	OrganizerID *uint     `gorm:"index" json:"organizerId,omitempty"`
	RelatedType string    `gorm:"size:20" json:"relatedType,omitempty"`
	RelatedID   *uint     `json:"relatedId,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Attendees []Employee `gorm:"many2many:calendar_event_attendees;" json:"attendees,omitempty"`
}

func (CalendarEvent) TableName() string { return "calendar_events" }
