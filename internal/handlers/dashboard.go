package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/services/dashboard"
)

func (r *Router) routeDashboard(api *mux.Router) {
	guarded(api, "/dashboard/stats", http.MethodGet, "dashboard", access.ActionRead, r.dashboardStats)
}

func (r *Router) dashboardStats(w http.ResponseWriter, req *http.Request) {
	stats, err := dashboard.NewService(r.base(req)).Stats(req.Context())
	reply(w, req, http.StatusOK, stats, err)
}
