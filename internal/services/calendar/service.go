// Package calendar manages scheduled events and their employee attendees.
package calendar

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/contacts"
)

const entity = "event"

const DefaultPageSize = 50

var sortColumns = query.Sort{
	Columns: map[string]string{
		"startsAt": "starts_at",
		"endsAt":   "ends_at",
		"title":    "title",
		"type":     "type",
	},
	Default: "starts_at ASC, id ASC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description"`
	Location    string           `json:"location" validate:"max=200"`
	StartsAt    time.Time        `json:"startsAt"`
	EndsAt      time.Time        `json:"endsAt"`
	AllDay      bool             `json:"allDay"`
	Type        models.EventType `json:"type" validate:"omitempty,oneof=meeting task reminder holiday"`
	OrganizerID *uint            `json:"organizerId"`
	AttendeeIDs []uint           `json:"attendeeIds"`
	RelatedType models.OwnerKind `json:"relatedType" validate:"omitempty,oneof=company employee supplier"`
	RelatedID   *uint            `json:"relatedId"`
}

// UpdateInput edits an event. A non-nil AttendeeIDs replaces the attendee list.
type UpdateInput struct {
	Title       *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string           `json:"description"`
	Location    *string           `json:"location" validate:"omitempty,max=200"`
	StartsAt    *time.Time        `json:"startsAt"`
	EndsAt      *time.Time        `json:"endsAt"`
	AllDay      *bool             `json:"allDay"`
	Type        *models.EventType `json:"type" validate:"omitempty,oneof=meeting task reminder holiday"`
	OrganizerID *uint             `json:"organizerId"`
	AttendeeIDs []uint            `json:"attendeeIds"`
}

// Filter narrows the event list. From and To select events overlapping the window.
type Filter struct {
	From        *time.Time
	To          *time.Time
	Type        string
	AttendeeID  *uint
	OrganizerID *uint
}

func checkWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("startsAt and endsAt are required")
	}
	if end.Before(start) {
		return apperr.Validation("endsAt must not be before startsAt")
	}
	return nil
}

func loadAttendees(tx *gorm.DB, ids []uint) ([]models.Employee, error) {
	out := []models.Employee{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	found := make(map[uint]bool, len(out))
	for _, e := range out {
		found[e.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NotFound("employee", id)
		}
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.CalendarEvent], error) {
	q := query.NewFilter().
		Eq("type", f.Type).
		Eq("organizer_id", f.OrganizerID).
		Gte("ends_at", f.From).
		Lte("starts_at", f.To)
	if f.AttendeeID != nil {
		q.Where("id IN (SELECT calendar_event_id FROM calendar_event_attendees WHERE employee_id = ?)", *f.AttendeeID)
	}
	return query.List[models.CalendarEvent](s.Conn(ctx), q, p, sortColumns, "Attendees")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.CalendarEvent, error) {
	return services.Find[models.CalendarEvent](s.Conn(ctx), entity, id, "Attendees")
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.CalendarEvent, error) {
	if err := checkWindow(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	if (in.RelatedType == "") != (in.RelatedID == nil) {
		return nil, apperr.Validation("relatedType and relatedId go together")
	}
	ev := &models.CalendarEvent{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		AllDay:      in.AllDay,
		Type:        in.Type,
		OrganizerID: in.OrganizerID,
		RelatedType: string(in.RelatedType),
		RelatedID:   in.RelatedID,
	}
	if ev.Type == "" {
		ev.Type = models.EventMeeting
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if ev.OrganizerID != nil {
			if err := services.MustExist[models.Employee](tx, "organizer", *ev.OrganizerID); err != nil {
				return err
			}
		}
		if in.RelatedID != nil {
			if err := contacts.CheckOwner(tx, models.Owner{Kind: in.RelatedType, ID: *in.RelatedID}); err != nil {
				return err
			}
		}
		attendees, err := loadAttendees(tx, in.AttendeeIDs)
		if err != nil {
			return err
		}
		ev.Attendees = attendees
		if err := tx.Create(ev).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ev.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.CalendarEvent, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		ev, err := services.FindForUpdate[models.CalendarEvent](tx, entity, id)
		if err != nil {
			return err
		}
		start, end := ev.StartsAt, ev.EndsAt
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		if err := checkWindow(start, end); err != nil {
			return err
		}
		if in.OrganizerID != nil {
			if err := services.MustExist[models.Employee](tx, "organizer", *in.OrganizerID); err != nil {
				return err
			}
		}

		p := query.Patch{}
		query.Set(p, "title", in.Title)
		query.Set(p, "description", in.Description)
		query.Set(p, "location", in.Location)
		query.Set(p, "starts_at", in.StartsAt)
		query.Set(p, "ends_at", in.EndsAt)
		query.Set(p, "all_day", in.AllDay)
		query.Set(p, "type", in.Type)
		query.Set(p, "organizer_id", in.OrganizerID)
		if p.Empty() && in.AttendeeIDs == nil {
			return apperr.Validation("no fields to update")
		}
		if err := p.Apply(tx, ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if in.AttendeeIDs == nil {
			return nil
		}
		attendees, err := loadAttendees(tx, in.AttendeeIDs)
		if err != nil {
			return err
		}
		assoc := tx.Model(ev).Association("Attendees")
		if len(attendees) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(attendees)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.CalendarEvent](s.Conn(ctx), entity, id)
}
