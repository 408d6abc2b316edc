package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/employees"
)

func (r *Router) routeEmployees(api *mux.Router) {
	const res = "employees"
	guarded(api, "/employees", http.MethodGet, res, access.ActionRead, r.listEmployees)
	guarded(api, "/employees", http.MethodPost, res, access.ActionCreate, r.createEmployee)
	guarded(api, "/employees/stats", http.MethodGet, res, access.ActionRead, r.employeeStats)
	guarded(api, "/employees/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getEmployee))
	guarded(api, "/employees/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateEmployee))
	guarded(api, "/employees/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteEmployee))
	guarded(api, "/employees/{id:[0-9]+}/terminate", http.MethodPost, res, access.ActionUpdate, withID(r.terminateEmployee))
	guarded(api, "/employees/{id:[0-9]+}/contacts", http.MethodGet, res, access.ActionRead, r.ownerContacts(models.OwnerEmployee))
	guarded(api, "/employees/{id:[0-9]+}/addresses", http.MethodGet, res, access.ActionRead, r.ownerAddresses(models.OwnerEmployee))
}

func (r *Router) listEmployees(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := employees.Filter{
		SearchText: q.str("searchText"),
		Department: q.str("department"),
		Status:     q.str("status"),
		ManagerID:  q.uint("managerId"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := employees.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, employees.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getEmployee(w http.ResponseWriter, req *http.Request, id uint) {
	e, err := employees.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, e, err)
}

func (r *Router) createEmployee(w http.ResponseWriter, req *http.Request) {
	var in employees.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	e, err := employees.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, e, err)
}

func (r *Router) updateEmployee(w http.ResponseWriter, req *http.Request, id uint) {
	var in employees.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	e, err := employees.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, e, err)
}

func (r *Router) deleteEmployee(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, employees.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) terminateEmployee(w http.ResponseWriter, req *http.Request, id uint) {
	var in employees.TerminateInput
	if err := r.decodeOptional(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	e, err := employees.NewService(r.base(req)).Terminate(req.Context(), id, in)
	reply(w, req, http.StatusOK, e, err)
}

func (r *Router) employeeStats(w http.ResponseWriter, req *http.Request) {
	stats, err := employees.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
