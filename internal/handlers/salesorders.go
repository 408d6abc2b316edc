package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/printer"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/salesorders"
)

func (r *Router) routeSalesOrders(api *mux.Router) {
	const res = "sales-orders"
	guarded(api, "/sales-orders", http.MethodGet, res, access.ActionRead, r.listSalesOrders)
	guarded(api, "/sales-orders", http.MethodPost, res, access.ActionCreate, r.createSalesOrder)
	guarded(api, "/sales-orders/stats", http.MethodGet, res, access.ActionRead, r.salesOrderStats)
	guarded(api, "/sales-orders/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getSalesOrder))
	guarded(api, "/sales-orders/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateSalesOrder))
	guarded(api, "/sales-orders/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteSalesOrder))
	guarded(api, "/sales-orders/{id:[0-9]+}/actions", http.MethodGet, res, access.ActionRead, withID(r.salesOrderActions))
	guarded(api, "/sales-orders/{id:[0-9]+}/pdf", http.MethodGet, res, access.ActionRead, withID(r.salesOrderPDF))
	guarded(api, "/sales-orders/{id:[0-9]+}/clone", http.MethodPost, res, access.ActionCreate, withID(r.cloneSalesOrder))
	guarded(api, "/sales-orders/{id:[0-9]+}/payments", http.MethodGet, res, access.ActionRead, withID(r.listPayments))
	guarded(api, "/sales-orders/{id:[0-9]+}/payments", http.MethodPost, res, access.ActionUpdate, withID(r.recordPayment))
	guarded(api, "/sales-orders/{id:[0-9]+}/{action:submit|confirm|process|ship|deliver|complete|cancel|return}", http.MethodPost, res, access.ActionUpdate, withID(r.salesOrderTransition))
}

func (r *Router) listSalesOrders(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := salesorders.Filter{
		SearchText:    q.str("searchText"),
		Status:        q.str("status"),
		PaymentStatus: q.str("paymentStatus"),
		CompanyID:     q.uint("companyId"),
		OrderFrom:     q.time("orderFrom"),
		OrderTo:       q.time("orderTo"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := salesorders.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, salesorders.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getSalesOrder(w http.ResponseWriter, req *http.Request, id uint) {
	o, err := salesorders.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, o, err)
}

func (r *Router) createSalesOrder(w http.ResponseWriter, req *http.Request) {
	var in salesorders.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.OwnerID = userID(req)
	o, err := salesorders.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, o, err)
}

func (r *Router) updateSalesOrder(w http.ResponseWriter, req *http.Request, id uint) {
	var in salesorders.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	o, err := salesorders.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, o, err)
}

func (r *Router) deleteSalesOrder(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, salesorders.NewService(r.base(req)).Delete(req.Context(), id))
}

// salesOrderTransition applies the fulfillment action named in the path.
func (r *Router) salesOrderTransition(w http.ResponseWriter, req *http.Request, id uint) {
	svc := salesorders.NewService(r.base(req))
	ctx, user := req.Context(), userID(req)

	var err error
	var out any
	switch mux.Vars(req)["action"] {
	case salesorders.ActionSubmit:
		out, err = svc.Submit(ctx, id)
	case salesorders.ActionConfirm:
		out, err = svc.Confirm(ctx, id, user)
	case salesorders.ActionProcess:
		out, err = svc.Process(ctx, id)
	case salesorders.ActionShip:
		var in salesorders.ShipInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Ship(ctx, id, in)
		}
	case salesorders.ActionDeliver:
		var in salesorders.DeliverInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Deliver(ctx, id, in)
		}
	case salesorders.ActionComplete:
		out, err = svc.Complete(ctx, id)
	case salesorders.ActionCancel:
		var in reasonInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Cancel(ctx, id, user, in.Reason)
		}
	case salesorders.ActionReturn:
		var in reasonInput
		if err = r.decodeOptional(w, req, &in); err == nil {
			out, err = svc.Return(ctx, id, in.Reason)
		}
	}
	reply(w, req, http.StatusOK, out, err)
}

func (r *Router) cloneSalesOrder(w http.ResponseWriter, req *http.Request, id uint) {
	o, err := salesorders.NewService(r.base(req)).Clone(req.Context(), id, userID(req))
	reply(w, req, http.StatusCreated, o, err)
}

func (r *Router) recordPayment(w http.ResponseWriter, req *http.Request, id uint) {
	var in salesorders.PaymentInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.RecordedBy = userID(req)
	p, err := salesorders.NewService(r.base(req)).RecordPayment(req.Context(), id, in)
	reply(w, req, http.StatusCreated, p, err)
}

func (r *Router) listPayments(w http.ResponseWriter, req *http.Request, id uint) {
	payments, err := salesorders.NewService(r.base(req)).Payments(req.Context(), id)
	reply(w, req, http.StatusOK, map[string]any{"data": payments}, err)
}

func (r *Router) salesOrderActions(w http.ResponseWriter, req *http.Request, id uint) {
	actions, err := salesorders.NewService(r.base(req)).Actions(req.Context(), id)
	reply(w, req, http.StatusOK, map[string][]string{"actions": actions}, err)
}

func (r *Router) salesOrderStats(w http.ResponseWriter, req *http.Request) {
	stats, err := salesorders.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}

func (r *Router) salesOrderPDF(w http.ResponseWriter, req *http.Request, id uint) {
	o, err := salesorders.NewService(r.base(req)).Get(req.Context(), id)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	pdf, err := printer.Render(printer.FromSalesOrder(o))
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to render pdf", err))
		return
	}
	writePDF(w, o.Number, pdf)
}
