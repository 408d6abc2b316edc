package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/onboarding"
)

func (r *Router) routeOnboarding(api *mux.Router) {
	const res = "onboarding"
	guarded(api, "/onboarding", http.MethodGet, res, access.ActionRead, r.listPlans)
	guarded(api, "/onboarding", http.MethodPost, res, access.ActionCreate, r.createPlan)
	guarded(api, "/onboarding/stats", http.MethodGet, res, access.ActionRead, r.onboardingStats)
	guarded(api, "/onboarding/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getPlan))
	guarded(api, "/onboarding/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updatePlan))
	guarded(api, "/onboarding/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deletePlan))
	guarded(api, "/onboarding/{id:[0-9]+}/cancel", http.MethodPost, res, access.ActionUpdate, withID(r.cancelPlan))
	guarded(api, "/onboarding/{id:[0-9]+}/tasks", http.MethodPost, res, access.ActionUpdate, withID(r.addTask))
	guarded(api, "/onboarding/{id:[0-9]+}/tasks/{taskId:[0-9]+}/complete", http.MethodPost, res, access.ActionUpdate, withID(r.completeTask))
}

func (r *Router) listPlans(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := onboarding.Filter{
		EmployeeID: q.uint("employeeId"),
		Status:     q.str("status"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := onboarding.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, onboarding.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getPlan(w http.ResponseWriter, req *http.Request, id uint) {
	p, err := onboarding.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) createPlan(w http.ResponseWriter, req *http.Request) {
	var in onboarding.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := onboarding.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, p, err)
}

func (r *Router) updatePlan(w http.ResponseWriter, req *http.Request, id uint) {
	var in onboarding.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := onboarding.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) deletePlan(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, onboarding.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) cancelPlan(w http.ResponseWriter, req *http.Request, id uint) {
	p, err := onboarding.NewService(r.base(req)).Cancel(req.Context(), id)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) addTask(w http.ResponseWriter, req *http.Request, id uint) {
	var in onboarding.TaskInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := onboarding.NewService(r.base(req)).AddTask(req.Context(), id, in)
	reply(w, req, http.StatusCreated, p, err)
}

func (r *Router) completeTask(w http.ResponseWriter, req *http.Request, id uint) {
	taskID, err := pathID(req, "taskId")
	if err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := onboarding.NewService(r.base(req)).CompleteTask(req.Context(), id, taskID)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) onboardingStats(w http.ResponseWriter, req *http.Request) {
	counts, err := onboarding.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, map[string]any{"byStatus": counts}, err)
}
