package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/companies"
	"github.com/xelth-com/eckbiz/internal/services/contacts"
)

func (r *Router) routeCompanies(api *mux.Router) {
	const res = "companies"
	guarded(api, "/companies", http.MethodGet, res, access.ActionRead, r.listCompanies)
	guarded(api, "/companies", http.MethodPost, res, access.ActionCreate, r.createCompany)
	guarded(api, "/companies/stats", http.MethodGet, res, access.ActionRead, r.companyStats)
	guarded(api, "/companies/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, r.getCompany)
	guarded(api, "/companies/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, r.updateCompany)
	guarded(api, "/companies/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, r.deleteCompany)
	guarded(api, "/companies/{id:[0-9]+}/contacts", http.MethodGet, res, access.ActionRead, r.ownerContacts(models.OwnerCompany))
	guarded(api, "/companies/{id:[0-9]+}/addresses", http.MethodGet, res, access.ActionRead, r.ownerAddresses(models.OwnerCompany))
}

func (r *Router) listCompanies(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := companies.Filter{
		SearchText:  q.str("searchText"),
		Type:        q.str("type"),
		Status:      q.str("status"),
		Industry:    q.str("industry"),
		CreatedFrom: q.time("createdFrom"),
		CreatedTo:   q.time("createdTo"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := companies.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, companies.DefaultPageSize))
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) getCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := companies.NewService(r.base(req)).Get(req.Context(), id)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (r *Router) createCompany(w http.ResponseWriter, req *http.Request) {
	var in companies.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := companies.NewService(r.base(req)).Create(req.Context(), in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (r *Router) updateCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		respondErr(w, req, err)
		return
	}
	var in companies.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := companies.NewService(r.base(req)).Update(req.Context(), id, in)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (r *Router) deleteCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		respondErr(w, req, err)
		return
	}
	if err := companies.NewService(r.base(req)).Delete(req.Context(), id); err != nil {
		respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) companyStats(w http.ResponseWriter, req *http.Request) {
	stats, err := companies.NewService(r.base(req)).Stats(req.Context())
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ownerContacts lists the contacts of the owner in the {id} path segment.
func (r *Router) ownerContacts(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := pathID(req, "id")
		if err != nil {
			respondErr(w, req, err)
			return
		}
		page, err := contacts.NewService(r.base(req)).ListContacts(req.Context(),
			contacts.OwnerQuery{OwnerType: kind, OwnerID: id},
			query.ParsePage(req.URL.Query(), contacts.DefaultPageSize))
		if err != nil {
			respondErr(w, req, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}

func (r *Router) ownerAddresses(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := pathID(req, "id")
		if err != nil {
			respondErr(w, req, err)
			return
		}
		page, err := contacts.NewService(r.base(req)).ListAddresses(req.Context(),
			contacts.OwnerQuery{OwnerType: kind, OwnerID: id},
			query.ParsePage(req.URL.Query(), contacts.DefaultPageSize))
		if err != nil {
			respondErr(w, req, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}
