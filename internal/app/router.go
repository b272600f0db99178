package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zellow-enterprises/zellow/internal/auth"
	"github.com/zellow-enterprises/zellow/internal/catalog"
	"github.com/zellow-enterprises/zellow/internal/coupons"
	"github.com/zellow-enterprises/zellow/internal/inventory"
	"github.com/zellow-enterprises/zellow/internal/ledger"
	"github.com/zellow-enterprises/zellow/internal/orders"
	"github.com/zellow-enterprises/zellow/internal/procurement"
	"github.com/zellow-enterprises/zellow/internal/shipping"
	"github.com/zellow-enterprises/zellow/internal/technicians"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthMiddleware     auth.Middleware
	AuthHandler        *auth.Handler
	CatalogHandler     *catalog.Handler
	OrdersHandler      *orders.Handler
	CouponsHandler     *coupons.Handler
	ShippingHandler    *shipping.Handler
	ProcurementHandler *procurement.Handler
	LedgerHandler      *ledger.Handler
	InventoryHandler   *inventory.Handler
	TechniciansHandler *technicians.Handler
}

// NewRouter constructs the chi.Router. The /api/auth routes and the public
// catalog listings sit outside the JWT guard; every other /api and /ajax
// route requires a bearer token and the matching permission.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		params.CatalogHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)
			r.Route("/orders", params.OrdersHandler.MountRoutes)
			r.Route("/coupons", params.CouponsHandler.MountRoutes)
			r.Route("/shipping", params.ShippingHandler.MountRoutes)
			r.Route("/purchase-orders", params.ProcurementHandler.MountRoutes)
			r.Route("/transactions", params.LedgerHandler.MountRoutes)
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
			r.Route("/technicians", params.TechniciansHandler.MountRoutes)
		})
	})

	r.Route("/ajax", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		params.ShippingHandler.MountAjax(r)
		params.CouponsHandler.MountAjax(r)
		params.ProcurementHandler.MountAjax(r)
	})

	return r
}
