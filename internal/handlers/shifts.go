package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/shifts"
)

func (r *Router) routeShifts(api *mux.Router) {
	const res = "shifts"
	guarded(api, "/shifts", http.MethodGet, res, access.ActionRead, r.listShifts)
	guarded(api, "/shifts", http.MethodPost, res, access.ActionCreate, r.createShift)
	guarded(api, "/shifts/stats", http.MethodGet, res, access.ActionRead, r.shiftStats)
	guarded(api, "/shifts/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getShift))
	guarded(api, "/shifts/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateShift))
	guarded(api, "/shifts/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteShift))
	guarded(api, "/shifts/{id:[0-9]+}/{action:complete|cancel|no-show}", http.MethodPost, res, access.ActionUpdate, withID(r.shiftTransition))
}

func (r *Router) listShifts(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := shifts.Filter{
		EmployeeID: q.uint("employeeId"),
		Status:     q.str("status"),
		Location:   q.str("location"),
		From:       q.time("from"),
		To:         q.time("to"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := shifts.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, shifts.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getShift(w http.ResponseWriter, req *http.Request, id uint) {
	s, err := shifts.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, s, err)
}

func (r *Router) createShift(w http.ResponseWriter, req *http.Request) {
	var in shifts.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	s, err := shifts.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, s, err)
}

func (r *Router) updateShift(w http.ResponseWriter, req *http.Request, id uint) {
	var in shifts.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	s, err := shifts.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, s, err)
}

func (r *Router) deleteShift(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, shifts.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) shiftTransition(w http.ResponseWriter, req *http.Request, id uint) {
	svc := shifts.NewService(r.base(req))
	var err error
	var out any
	switch mux.Vars(req)["action"] {
	case "complete":
		out, err = svc.Complete(req.Context(), id)
	case "cancel":
		var in reasonInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Cancel(req.Context(), id, in.Reason)
		}
	case "no-show":
		out, err = svc.NoShow(req.Context(), id)
	}
	reply(w, req, http.StatusOK, out, err)
}

func (r *Router) shiftStats(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	from, to := q.time("from"), q.time("to")
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	stats, err := shifts.NewService(r.base(req)).Stats(req.Context(), from, to)
	reply(w, req, http.StatusOK, stats, err)
}
