package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/suppliers"
)

func (r *Router) routeSuppliers(api *mux.Router) {
	const res = "suppliers"
	guarded(api, "/suppliers", http.MethodGet, res, access.ActionRead, r.listSuppliers)
	guarded(api, "/suppliers", http.MethodPost, res, access.ActionCreate, r.createSupplier)
	guarded(api, "/suppliers/stats", http.MethodGet, res, access.ActionRead, r.supplierStats)
	guarded(api, "/suppliers/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getSupplier))
	guarded(api, "/suppliers/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateSupplier))
	guarded(api, "/suppliers/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteSupplier))
	guarded(api, "/suppliers/{id:[0-9]+}/contacts", http.MethodGet, res, access.ActionRead, r.ownerContacts(models.OwnerSupplier))
	guarded(api, "/suppliers/{id:[0-9]+}/addresses", http.MethodGet, res, access.ActionRead, r.ownerAddresses(models.OwnerSupplier))
}

func (r *Router) listSuppliers(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := suppliers.Filter{
		SearchText: q.str("searchText"),
		Status:     q.str("status"),
		MinRating:  q.int("minRating"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := suppliers.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, suppliers.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getSupplier(w http.ResponseWriter, req *http.Request, id uint) {
	s, err := suppliers.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, s, err)
}

func (r *Router) createSupplier(w http.ResponseWriter, req *http.Request) {
	var in suppliers.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	s, err := suppliers.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, s, err)
}

func (r *Router) updateSupplier(w http.ResponseWriter, req *http.Request, id uint) {
	var in suppliers.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	s, err := suppliers.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, s, err)
}

func (r *Router) deleteSupplier(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, suppliers.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) supplierStats(w http.ResponseWriter, req *http.Request) {
	stats, err := suppliers.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
