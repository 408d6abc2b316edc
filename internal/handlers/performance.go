package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/performance"
)

func (r *Router) routePerformance(api *mux.Router) {
	const res = "performance"
	guarded(api, "/performance/reviews", http.MethodGet, res, access.ActionRead, r.listReviews)
	guarded(api, "/performance/reviews", http.MethodPost, res, access.ActionCreate, r.createReview)
	guarded(api, "/performance/reviews/stats", http.MethodGet, res, access.ActionRead, r.reviewStats)
	guarded(api, "/performance/reviews/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getReview))
	guarded(api, "/performance/reviews/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateReview))
	guarded(api, "/performance/reviews/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteReview))
	guarded(api, "/performance/reviews/{id:[0-9]+}/submit", http.MethodPost, res, access.ActionUpdate, withID(r.submitReview))
	guarded(api, "/performance/reviews/{id:[0-9]+}/acknowledge", http.MethodPost, res, access.ActionUpdate, withID(r.acknowledgeReview))
	guarded(api, "/performance/reviews/{id:[0-9]+}/goals/{goalId:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateGoal))
}

func (r *Router) listReviews(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := performance.Filter{
		EmployeeID: q.uint("employeeId"),
		ReviewerID: q.uint("reviewerId"),
		Status:     q.str("status"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := performance.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, performance.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getReview(w http.ResponseWriter, req *http.Request, id uint) {
	rv, err := performance.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, rv, err)
}

func (r *Router) createReview(w http.ResponseWriter, req *http.Request) {
	var in performance.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	rv, err := performance.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, rv, err)
}

func (r *Router) updateReview(w http.ResponseWriter, req *http.Request, id uint) {
	var in performance.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	rv, err := performance.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, rv, err)
}

func (r *Router) deleteReview(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, performance.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) submitReview(w http.ResponseWriter, req *http.Request, id uint) {
	rv, err := performance.NewService(r.base(req)).Submit(req.Context(), id)
	reply(w, req, http.StatusOK, rv, err)
}

func (r *Router) acknowledgeReview(w http.ResponseWriter, req *http.Request, id uint) {
	rv, err := performance.NewService(r.base(req)).Acknowledge(req.Context(), id)
	reply(w, req, http.StatusOK, rv, err)
}

func (r *Router) updateGoal(w http.ResponseWriter, req *http.Request, id uint) {
	goalID, err := pathID(req, "goalId")
	if err != nil {
		respondErr(w, req, err)
		return
	}
	var in performance.GoalUpdate
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	g, err := performance.NewService(r.base(req)).UpdateGoal(req.Context(), id, goalID, in)
	reply(w, req, http.StatusOK, g, err)
}

func (r *Router) reviewStats(w http.ResponseWriter, req *http.Request) {
	rows, err := performance.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, map[string]any{"byDepartment": rows}, err)
}
