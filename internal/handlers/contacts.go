package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/contacts"
)

func (r *Router) routeContacts(api *mux.Router) {
	guarded(api, "/contacts", http.MethodGet, "contacts", access.ActionRead, r.listContacts)
	guarded(api, "/contacts", http.MethodPost, "contacts", access.ActionCreate, r.createContact)
	guarded(api, "/contacts/{id:[0-9]+}", http.MethodGet, "contacts", access.ActionRead, withID(r.getContact))
	guarded(api, "/contacts/{id:[0-9]+}", http.MethodPut, "contacts", access.ActionUpdate, withID(r.updateContact))
	guarded(api, "/contacts/{id:[0-9]+}", http.MethodDelete, "contacts", access.ActionDelete, withID(r.deleteContact))

	guarded(api, "/addresses", http.MethodGet, "addresses", access.ActionRead, r.listAddresses)
	guarded(api, "/addresses", http.MethodPost, "addresses", access.ActionCreate, r.createAddress)
	guarded(api, "/addresses/{id:[0-9]+}", http.MethodGet, "addresses", access.ActionRead, withID(r.getAddress))
	guarded(api, "/addresses/{id:[0-9]+}", http.MethodPut, "addresses", access.ActionUpdate, withID(r.updateAddress))
	guarded(api, "/addresses/{id:[0-9]+}", http.MethodDelete, "addresses", access.ActionDelete, withID(r.deleteAddress))
}

// ownerQuery reads ownerType and ownerId; the service rejects a missing pair.
func ownerQuery(q *params) contacts.OwnerQuery {
	oq := contacts.OwnerQuery{OwnerType: models.OwnerKind(q.str("ownerType"))}
	if id := q.uint("ownerId"); id != nil {
		oq.OwnerID = *id
	}
	return oq
}

func (r *Router) listContacts(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	oq := ownerQuery(q)
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := contacts.NewService(r.base(req)).ListContacts(req.Context(), oq, query.ParsePage(q.values, contacts.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getContact(w http.ResponseWriter, req *http.Request, id uint) {
	c, err := contacts.NewService(r.base(req)).GetContact(req.Context(), id)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) createContact(w http.ResponseWriter, req *http.Request) {
	var in contacts.ContactInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := contacts.NewService(r.base(req)).CreateContact(req.Context(), in)
	reply(w, req, http.StatusCreated, c, err)
}

func (r *Router) updateContact(w http.ResponseWriter, req *http.Request, id uint) {
	var in contacts.ContactUpdate
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := contacts.NewService(r.base(req)).UpdateContact(req.Context(), id, in)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) deleteContact(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, contacts.NewService(r.base(req)).DeleteContact(req.Context(), id))
}

func (r *Router) listAddresses(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	oq := ownerQuery(q)
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := contacts.NewService(r.base(req)).ListAddresses(req.Context(), oq, query.ParsePage(q.values, contacts.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getAddress(w http.ResponseWriter, req *http.Request, id uint) {
	a, err := contacts.NewService(r.base(req)).GetAddress(req.Context(), id)
	reply(w, req, http.StatusOK, a, err)
}

func (r *Router) createAddress(w http.ResponseWriter, req *http.Request) {
	var in contacts.AddressInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	a, err := contacts.NewService(r.base(req)).CreateAddress(req.Context(), in)
	reply(w, req, http.StatusCreated, a, err)
}

func (r *Router) updateAddress(w http.ResponseWriter, req *http.Request, id uint) {
	var in contacts.AddressUpdate
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	a, err := contacts.NewService(r.base(req)).UpdateAddress(req.Context(), id, in)
	reply(w, req, http.StatusOK, a, err)
}

func (r *Router) deleteAddress(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, contacts.NewService(r.base(req)).DeleteAddress(req.Context(), id))
}
