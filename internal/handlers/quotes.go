package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/printer"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/quotes"
)

// reasonInput is the body of reject, cancel and return actions.
type reasonInput struct {
	Reason string `json:"reason" validate:"max=2000"`
}

func (r *Router) routeQuotes(api *mux.Router) {
	const res = "quotes"
	guarded(api, "/quotes", http.MethodGet, res, access.ActionRead, r.listQuotes)
	guarded(api, "/quotes", http.MethodPost, res, access.ActionCreate, r.createQuote)
	guarded(api, "/quotes/stats", http.MethodGet, res, access.ActionRead, r.quoteStats)
	guarded(api, "/quotes/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getQuote))
	guarded(api, "/quotes/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateQuote))
	guarded(api, "/quotes/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteQuote))
	guarded(api, "/quotes/{id:[0-9]+}/actions", http.MethodGet, res, access.ActionRead, withID(r.quoteActions))
	guarded(api, "/quotes/{id:[0-9]+}/pdf", http.MethodGet, res, access.ActionRead, withID(r.quotePDF))
	guarded(api, "/quotes/{id:[0-9]+}/share", http.MethodPost, res, access.ActionUpdate, withID(r.shareQuote))
	guarded(api, "/quotes/{id:[0-9]+}/clone", http.MethodPost, res, access.ActionCreate, withID(r.cloneQuote))
	guarded(api, "/quotes/{id:[0-9]+}/{action:send|view|accept|reject|expire|convert}", http.MethodPost, res, access.ActionUpdate, withID(r.quoteTransition))
}

func (r *Router) listQuotes(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := quotes.Filter{
		SearchText: q.str("searchText"),
		Status:     q.str("status"),
		CompanyID:  q.uint("companyId"),
		OwnerID:    q.str("ownerId"),
		IssueFrom:  q.time("issueFrom"),
		IssueTo:    q.time("issueTo"),
		MinTotal:   q.decimal("minTotal"),
		MaxTotal:   q.decimal("maxTotal"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := quotes.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, quotes.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getQuote(w http.ResponseWriter, req *http.Request, id uint) {
	q, err := quotes.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, q, err)
}

func (r *Router) createQuote(w http.ResponseWriter, req *http.Request) {
	var in quotes.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.OwnerID = userID(req)
	q, err := quotes.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, q, err)
}

func (r *Router) updateQuote(w http.ResponseWriter, req *http.Request, id uint) {
	var in quotes.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	q, err := quotes.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, q, err)
}

func (r *Router) deleteQuote(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, quotes.NewService(r.base(req)).Delete(req.Context(), id))
}

// quoteTransition applies the lifecycle action named in the path.
func (r *Router) quoteTransition(w http.ResponseWriter, req *http.Request, id uint) {
	svc := quotes.NewService(r.base(req))
	ctx, user := req.Context(), userID(req)

	var err error
	var out any
	switch mux.Vars(req)["action"] {
	case quotes.ActionSend:
		out, err = svc.Send(ctx, id, user)
	case quotes.ActionView:
		out, err = svc.View(ctx, id)
	case quotes.ActionAccept:
		out, err = svc.Accept(ctx, id, user)
	case quotes.ActionReject:
		var in reasonInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Reject(ctx, id, user, in.Reason)
		}
	case quotes.ActionExpire:
		out, err = svc.Expire(ctx, id)
	case quotes.ActionConvert:
		out, err = svc.Convert(ctx, id, user)
	}
	reply(w, req, http.StatusOK, out, err)
}

func (r *Router) cloneQuote(w http.ResponseWriter, req *http.Request, id uint) {
	var in quotes.CloneInput
	if err := r.decodeOptional(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.UserID = userID(req)
	q, err := quotes.NewService(r.base(req)).Clone(req.Context(), id, in)
	reply(w, req, http.StatusCreated, q, err)
}

func (r *Router) quoteActions(w http.ResponseWriter, req *http.Request, id uint) {
	actions, err := quotes.NewService(r.base(req)).Actions(req.Context(), id)
	reply(w, req, http.StatusOK, map[string][]string{"actions": actions}, err)
}

func (r *Router) quoteStats(w http.ResponseWriter, req *http.Request) {
	stats, err := quotes.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}

func (r *Router) quotePDF(w http.ResponseWriter, req *http.Request, id uint) {
	q, err := quotes.NewService(r.base(req)).Get(req.Context(), id)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	pdf, err := printer.Render(printer.FromQuote(q))
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to render pdf", err))
		return
	}
	writePDF(w, q.Number, pdf)
}

func writePDF(w http.ResponseWriter, name string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
