package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/tickets"
	"github.com/xelth-com/eckbiz/internal/tenant"
)

// IntakeResponse is what a public submitter learns about their ticket
type IntakeResponse struct {
	Reference string              `json:"reference"`
	Status    models.TicketStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Duplicate bool                `json:"duplicate,omitempty"`
}

func (r *Router) ticketService(req *http.Request) *tickets.Service {
	return tickets.NewService(r.base(req), r.deps.Dedup, tenant.IDFrom(req.Context()))
}

func (r *Router) routeTickets(api *mux.Router) {
	const res = "tickets"
	guarded(api, "/tickets", http.MethodGet, res, access.ActionRead, r.listTickets)
	guarded(api, "/tickets/stats", http.MethodGet, res, access.ActionRead, r.ticketStats)
	guarded(api, "/tickets/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getTicket))
	guarded(api, "/tickets/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateTicket))
	guarded(api, "/tickets/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteTicket))
}

// intakeTicket accepts the public contact form.
func (r *Router) intakeTicket(w http.ResponseWriter, req *http.Request) {
	var in tickets.IntakeInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.ClientIP = middleware.ClientIP(req)
	t, created, err := r.ticketService(req).Intake(req.Context(), in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondJSON(w, status, IntakeResponse{
		Reference: t.Reference,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		Duplicate: !created,
	})
}

func (r *Router) listTickets(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := tickets.Filter{
		SearchText: q.str("searchText"),
		Status:     q.str("status"),
		Priority:   q.str("priority"),
		AssigneeID: q.str("assigneeId"),
		From:       q.time("from"),
		To:         q.time("to"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := r.ticketService(req).List(req.Context(), f, query.ParsePage(q.values, tickets.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getTicket(w http.ResponseWriter, req *http.Request, id uint) {
	t, err := r.ticketService(req).Get(req.Context(), id)
	reply(w, req, http.StatusOK, t, err)
}

func (r *Router) updateTicket(w http.ResponseWriter, req *http.Request, id uint) {
	var in tickets.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	t, err := r.ticketService(req).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, t, err)
}

func (r *Router) deleteTicket(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, r.ticketService(req).Delete(req.Context(), id))
}

func (r *Router) ticketStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.ticketService(req).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
