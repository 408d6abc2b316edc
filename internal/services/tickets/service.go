// Package tickets takes inbound requests from the public intake form and
// lets staff triage them.
package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/metrics"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/numbering"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/utils"
)

const entity = "ticket"

const DefaultPageSize = 20

// DedupWindow is how long an identical submission returns the original ticket.
const DedupWindow = 10 * time.Minute

var open = []models.TicketStatus{models.TicketOpen, models.TicketInProgress}

const (
	ActionReopen  = "reopen"
	ActionStart   = "start"
	ActionResolve = "resolve"
	ActionClose   = "close"
)

var Machine = lifecycle.New("ticket", map[string]lifecycle.Transition[models.TicketStatus]{
	ActionReopen:  {From: []models.TicketStatus{models.TicketInProgress, models.TicketResolved, models.TicketClosed}, To: models.TicketOpen},
	ActionStart:   {From: []models.TicketStatus{models.TicketOpen, models.TicketResolved}, To: models.TicketInProgress},
	ActionResolve: {From: open, To: models.TicketResolved},
	ActionClose:   {From: []models.TicketStatus{models.TicketOpen, models.TicketInProgress, models.TicketResolved}, To: models.TicketClosed},
})

// actionFor maps a requested status to the transition reaching it.
var actionFor = map[models.TicketStatus]string{
	models.TicketOpen:       ActionReopen,
	models.TicketInProgress: ActionStart,
	models.TicketResolved:   ActionResolve,
	models.TicketClosed:     ActionClose,
}

var sortColumns = query.Sort{
	Columns: map[string]string{
		"reference": "reference",
		"status":    "status",
		"priority":  "priority",
		"createdAt": "created_at",
	},
	Default: "created_at DESC, id DESC",
}

type Service struct {
	services.Base
	dedup *utils.Deduplicator
	scope string
}

// NewService returns a ticket service. Submissions are deduplicated in dedup
// under keys prefixed with scope, normally the tenant id. dedup may be nil.
func NewService(b services.Base, dedup *utils.Deduplicator, scope string) *Service {
	return &Service{Base: b, dedup: dedup, scope: scope}
}

type IntakeInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Email    string          `json:"email" validate:"required,email,max=255"`
	Company  string          `json:"company" validate:"max=200"`
	Subject  string          `json:"subject" validate:"required,max=255"`
	Message  string          `json:"message" validate:"required,max=10000"`
	Source   string          `json:"source" validate:"omitempty,max=50"`
	Payload  json.RawMessage `json:"payload"`
	ClientIP string          `json:"-"`
}

type UpdateInput struct {
	Status     *models.TicketStatus   `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority   *models.TicketPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	AssigneeID *string                `json:"assigneeId" validate:"omitempty,max=36"`
}

type Filter struct {
	SearchText string
	Status     string
	Priority   string
	AssigneeID string
	From       *time.Time
	To         *time.Time
}

func (s *Service) dedupKey(in IntakeInput) string {
	return utils.HashKey(s.scope, strings.ToLower(strings.TrimSpace(in.Email)), strings.TrimSpace(in.Subject), strings.TrimSpace(in.Message))
}

// Intake stores a public submission. A repeat of the same submission within
// DedupWindow returns the original ticket and created=false.
func (s *Service) Intake(ctx context.Context, in IntakeInput) (*models.Ticket, bool, error) {
	key := s.dedupKey(in)
	if s.dedup != nil {
		if ref, ok := s.dedup.Seen(key); ok {
			var t models.Ticket
			err := s.Conn(ctx).Where("reference = ?", ref).First(&t).Error
			if err == nil {
				metrics.RecordTicket("duplicate")
				return &t, false, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, fmt.Errorf("lookup ticket %s: %w", ref, err)
			}
		}
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return nil, false, apperr.Validation("payload must be valid JSON")
	}

	t := &models.Ticket{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Company:  in.Company,
		Subject:  in.Subject,
		Message:  in.Message,
		Source:   in.Source,
		Status:   models.TicketOpen,
		Priority: models.PriorityNormal,
		ClientIP: in.ClientIP,
		Payload:  datatypes.JSON(in.Payload),
	}
	if t.Source == "" {
		t.Source = "web"
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if t.Reference, err = numbering.Yearly(tx, numbering.ScopeTicket, s.Now()); err != nil {
			return err
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if s.dedup != nil {
		s.dedup.Remember(key, t.Reference)
	}
	metrics.RecordTicket("created")
	s.Events.Notify(ctx, lifecycle.Event{
		Type:   "created",
		Entity: entity,
		ID:     t.ID,
		Number: t.Reference,
		Status: string(t.Status),
		At:     s.Now(),
	})
	return t, true, nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Ticket], error) {
	q := query.NewFilter().
		Search(f.SearchText, "reference", "name", "email", "company", "subject").
		Eq("status", f.Status).
		Eq("priority", f.Priority).
		Eq("assignee_id", f.AssigneeID).
		Range("created_at", f.From, f.To)
	return query.List[models.Ticket](s.Conn(ctx), q, p, sortColumns)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Ticket, error) {
	return services.Find[models.Ticket](s.Conn(ctx), entity, id)
}

// Update triages a ticket. A status change must follow Machine; resolving
// stamps resolved_at and reopening clears it. An empty assigneeId unassigns.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Ticket, error) {
	var (
		t      *models.Ticket
		action string
	)
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if t, err = services.FindForUpdate[models.Ticket](tx, entity, id); err != nil {
			return err
		}
		p := query.Patch{}
		query.Set(p, "priority", in.Priority)
		if in.AssigneeID != nil {
			if *in.AssigneeID == "" {
				p.Put("assignee_id", nil)
			} else {
				var u models.UserAuth
				if err := tx.Select("id").Where("id = ?", *in.AssigneeID).First(&u).Error; err != nil {
					return apperr.FromDB(err, "user", *in.AssigneeID)
				}
				p.Put("assignee_id", *in.AssigneeID)
			}
		}
		if in.Status != nil && *in.Status != t.Status {
			action = actionFor[*in.Status]
			next, err := Machine.Next(action, t.Status)
			if err != nil {
				return err
			}
			p.Put("status", next)
			switch next {
			case models.TicketResolved, models.TicketClosed:
				if t.ResolvedAt == nil {
					p.Put("resolved_at", s.Now())
				}
			default:
				p.Put("resolved_at", nil)
			}
			t.Status = next
		}
		if p.Empty() {
			if in.Status != nil {
				return nil
			}
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, t)
	})
	if err != nil {
		return nil, err
	}
	if action != "" {
		s.Transitioned(ctx, entity, action, t.ID, t.Reference, string(t.Status))
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Ticket](s.Conn(ctx), entity, id)
}

// OpenCount counts tickets still waiting for a resolution.
func OpenCount(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.Ticket{}).Where("status IN ?", open).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count open tickets: %w", err)
	}
	return n, nil
}

type Stats struct {
	Open       int64            `json:"open"`
	ByStatus   []services.Count `json:"byStatus"`
	ByPriority []services.Count `json:"byPriority"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{}
	var err error
	if out.Open, err = OpenCount(db); err != nil {
		return nil, err
	}
	if out.ByStatus, err = services.CountBy[models.Ticket](db, "status"); err != nil {
		return nil, err
	}
	if out.ByPriority, err = services.CountBy[models.Ticket](db, "priority"); err != nil {
		return nil, err
	}
	return out, nil
}
