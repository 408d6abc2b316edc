package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/users"
)

func (r *Router) routeUsers(api *mux.Router) {
	const res = "users"
	guarded(api, "/users", http.MethodGet, res, access.ActionRead, r.listUsers)
	guarded(api, "/users", http.MethodPost, res, access.ActionCreate, r.createUser)
	guarded(api, "/users/{uid}", http.MethodGet, res, access.ActionRead, r.getUser)
	guarded(api, "/users/{uid}", http.MethodPut, res, access.ActionUpdate, r.updateUser)
	guarded(api, "/users/{uid}", http.MethodDelete, res, access.ActionDelete, r.deleteUser)
}

func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := users.Filter{
		SearchText: q.str("searchText"),
		Role:       q.str("role"),
		IsActive:   q.bool("isActive"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := users.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, users.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getUser(w http.ResponseWriter, req *http.Request) {
	u, err := users.NewService(r.base(req)).Get(req.Context(), mux.Vars(req)["uid"])
	reply(w, req, http.StatusOK, u, err)
}

func (r *Router) createUser(w http.ResponseWriter, req *http.Request) {
	var in users.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	u, err := users.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, u, err)
}

func (r *Router) updateUser(w http.ResponseWriter, req *http.Request) {
	var in users.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	u, err := users.NewService(r.base(req)).Update(req.Context(), mux.Vars(req)["uid"], in)
	reply(w, req, http.StatusOK, u, err)
}

func (r *Router) deleteUser(w http.ResponseWriter, req *http.Request) {
	uid := mux.Vars(req)["uid"]
	if uid == userID(req) {
		respondErr(w, req, apperr.Validation("cannot delete your own account"))
		return
	}
	noContent(w, req, users.NewService(r.base(req)).Delete(req.Context(), uid))
}
