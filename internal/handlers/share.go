package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/printer"
	"github.com/xelth-com/eckbiz/internal/services/quotes"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
)

const (
	defaultShareTTL = 30 * 24 * time.Hour
	maxShareTTL     = 180 * 24 * time.Hour
)

type shareInput struct {
	TTLHours int `json:"ttlHours" validate:"min=0,max=4320"`
}

// ShareResponse carries a public link to a document
type ShareResponse struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// shareQuote issues a public link to the quote PDF.
func (r *Router) shareQuote(w http.ResponseWriter, req *http.Request, id uint) {
	if r.deps.Links == nil {
		respondErr(w, req, apperr.Internal("share links are not configured", nil))
		return
	}
	var in shareInput
	if err := r.decodeOptional(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	b := r.base(req)
	q, err := quotes.NewService(b).Get(req.Context(), id)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	if q.Status == models.QuoteDraft {
		respondErr(w, req, apperr.InvalidState(string(q.Status), "send the quote before sharing it"))
		return
	}

	ttl := defaultShareTTL
	if in.TTLHours > 0 {
		ttl = min(time.Duration(in.TTLHours)*time.Hour, maxShareTTL)
	}
	link := utils.ShareLink{
		Tenant:  tenant.IDFrom(req.Context()),
		Entity:  "quote",
		ID:      q.ID,
		Expires: b.Now().Add(ttl).Truncate(time.Second),
	}
	token, err := r.deps.Links.Seal(link)
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to create share link", err))
		return
	}
	respondJSON(w, http.StatusCreated, ShareResponse{Token: token, Path: "/public/quotes/" + token, ExpiresAt: link.Expires})
}

// sharedQuote serves the quote PDF behind a share token. Opening a sent
// quote marks it viewed.
func (r *Router) sharedQuote(w http.ResponseWriter, req *http.Request) {
	link, err := r.deps.Links.Open(mux.Vars(req)["token"])
	if err != nil {
		if errors.Is(err, utils.ErrShareLinkExpired) {
			respondErr(w, req, apperr.Forbidden("share link expired"))
			return
		}
		respondErr(w, req, apperr.NotFound("shared document", "link"))
		return
	}
	if link.Entity != "quote" {
		respondErr(w, req, apperr.NotFound("shared document", "link"))
		return
	}

	db, err := r.deps.Resolver.DB(req.Context(), link.Tenant)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	ctx := tenant.WithID(req.Context(), link.Tenant)
	ctx = tenant.WithDB(ctx, db.WithContext(ctx))
	req = req.WithContext(ctx)
	svc := quotes.NewService(r.base(req))

	q, err := svc.Get(ctx, link.ID)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	if q.Status == models.QuoteSent {
		if q, err = svc.View(ctx, link.ID); err != nil {
			respondErr(w, req, err)
			return
		}
	}
	pdf, err := printer.Render(printer.FromQuote(q))
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to render pdf", err))
		return
	}
	writePDF(w, q.Number, pdf)
}
