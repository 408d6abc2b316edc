package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/calendar"
)

func (r *Router) routeCalendar(api *mux.Router) {
	const res = "calendar"
	guarded(api, "/calendar/events", http.MethodGet, res, access.ActionRead, r.listEvents)
	guarded(api, "/calendar/events", http.MethodPost, res, access.ActionCreate, r.createEvent)
	guarded(api, "/calendar/events/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getEvent))
	guarded(api, "/calendar/events/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateEvent))
	guarded(api, "/calendar/events/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteEvent))
}

func (r *Router) listEvents(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := calendar.Filter{
		From:        q.time("from"),
		To:          q.time("to"),
		Type:        q.str("type"),
		AttendeeID:  q.uint("attendeeId"),
		OrganizerID: q.uint("organizerId"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := calendar.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, calendar.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getEvent(w http.ResponseWriter, req *http.Request, id uint) {
	e, err := calendar.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, e, err)
}

func (r *Router) createEvent(w http.ResponseWriter, req *http.Request) {
	var in calendar.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	e, err := calendar.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, e, err)
}

func (r *Router) updateEvent(w http.ResponseWriter, req *http.Request, id uint) {
	var in calendar.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	e, err := calendar.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, e, err)
}

func (r *Router) deleteEvent(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, calendar.NewService(r.base(req)).Delete(req.Context(), id))
}
