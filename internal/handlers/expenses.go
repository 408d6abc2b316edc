package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/expenses"
)

type payInput struct {
	Reference string `json:"reference" validate:"max=100"`
}

func (r *Router) routeExpenses(api *mux.Router) {
	const res = "expenses"
	guarded(api, "/expenses", http.MethodGet, res, access.ActionRead, r.listExpenses)
	guarded(api, "/expenses", http.MethodPost, res, access.ActionCreate, r.createExpense)
	guarded(api, "/expenses/stats", http.MethodGet, res, access.ActionRead, r.expenseStats)
	guarded(api, "/expenses/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getExpense))
	guarded(api, "/expenses/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateExpense))
	guarded(api, "/expenses/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteExpense))
	guarded(api, "/expenses/{id:[0-9]+}/submit", http.MethodPost, res, access.ActionUpdate, withID(r.expenseTransition))
	// approving, rejecting and paying are a manager's call
	guarded(api, "/expenses/{id:[0-9]+}/{action:approve|reject|pay}", http.MethodPost, res, access.ActionManage, withID(r.expenseTransition))
}

func (r *Router) listExpenses(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := expenses.Filter{
		SearchText: q.str("searchText"),
		Status:     q.str("status"),
		EmployeeID: q.uint("employeeId"),
		From:       q.time("from"),
		To:         q.time("to"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := expenses.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, expenses.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getExpense(w http.ResponseWriter, req *http.Request, id uint) {
	c, err := expenses.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) createExpense(w http.ResponseWriter, req *http.Request) {
	var in expenses.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := expenses.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, c, err)
}

func (r *Router) updateExpense(w http.ResponseWriter, req *http.Request, id uint) {
	var in expenses.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := expenses.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) deleteExpense(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, expenses.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) expenseTransition(w http.ResponseWriter, req *http.Request, id uint) {
	svc := expenses.NewService(r.base(req))
	ctx := req.Context()

	action := mux.Vars(req)["action"]
	if action == "" {
		action = expenses.ActionSubmit
	}
	var err error
	var out any
	switch action {
	case expenses.ActionSubmit:
		out, err = svc.Submit(ctx, id)
	case expenses.ActionApprove:
		out, err = svc.Approve(ctx, id, userID(req))
	case expenses.ActionReject:
		var in reasonInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Reject(ctx, id, userID(req), in.Reason)
		}
	case expenses.ActionPay:
		var in payInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Pay(ctx, id, in.Reference)
		}
	}
	reply(w, req, http.StatusOK, out, err)
}

func (r *Router) expenseStats(w http.ResponseWriter, req *http.Request) {
	stats, err := expenses.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
