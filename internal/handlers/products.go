package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/products"
)

func (r *Router) routeProducts(api *mux.Router) {
	const res = "products"
	guarded(api, "/products", http.MethodGet, res, access.ActionRead, r.listProducts)
	guarded(api, "/products", http.MethodPost, res, access.ActionCreate, r.createProduct)
	guarded(api, "/products/stats", http.MethodGet, res, access.ActionRead, r.productStats)
	guarded(api, "/products/bulk-price", http.MethodPost, res, access.ActionUpdate, r.bulkPrice)
	guarded(api, "/products/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getProduct))
	guarded(api, "/products/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateProduct))
	guarded(api, "/products/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteProduct))
	guarded(api, "/products/{id:[0-9]+}/stock", http.MethodPost, res, access.ActionUpdate, withID(r.adjustStock))
	guarded(api, "/products/{id:[0-9]+}/movements", http.MethodGet, res, access.ActionRead, withID(r.stockMovements))
}

func (r *Router) listProducts(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := products.Filter{
		SearchText: q.str("searchText"),
		Category:   q.str("category"),
		SupplierID: q.uint("supplierId"),
		IsActive:   q.bool("isActive"),
		MinPrice:   q.decimal("minPrice"),
		MaxPrice:   q.decimal("maxPrice"),
	}
	if low := q.bool("lowStock"); low != nil {
		f.LowStock = *low
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := products.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, products.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getProduct(w http.ResponseWriter, req *http.Request, id uint) {
	p, err := products.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	var in products.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := products.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, p, err)
}

func (r *Router) updateProduct(w http.ResponseWriter, req *http.Request, id uint) {
	var in products.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	p, err := products.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, p, err)
}

func (r *Router) deleteProduct(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, products.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) adjustStock(w http.ResponseWriter, req *http.Request, id uint) {
	var in products.StockInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.UserID = userID(req)
	m, err := products.NewService(r.base(req)).AdjustStock(req.Context(), id, in)
	reply(w, req, http.StatusCreated, m, err)
}

func (r *Router) stockMovements(w http.ResponseWriter, req *http.Request, id uint) {
	page, err := products.NewService(r.base(req)).Movements(req.Context(), id, query.ParsePage(req.URL.Query(), products.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) bulkPrice(w http.ResponseWriter, req *http.Request) {
	var in products.BulkPriceInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	updated, err := products.NewService(r.base(req)).BulkPrice(req.Context(), in)
	reply(w, req, http.StatusOK, map[string]any{"updated": len(updated), "data": updated}, err)
}

func (r *Router) productStats(w http.ResponseWriter, req *http.Request) {
	stats, err := products.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
