package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/rbac"
	"github.com/zellow-enterprises/zellow/internal/shared"
)

// Handler manages inventory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the /api/inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermCatalogView))
		r.Get("/", h.list)
		r.Get("/{productID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermCatalogEdit))
		r.Post("/adjust", h.adjust)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	item, err := h.service.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get inventory", slog.Any("error", err), slog.Int64("product_id", productID))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Success(w, "", itemResponse(item))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lowStock, _ := strconv.Atoi(q.Get("low_stock_below"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	items, total, err := h.service.List(r.Context(), lowStock, limit, offset)
	if err != nil {
		h.logger.Error("list inventory", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse(it))
	}
	httpx.Success(w, "", map[string]any{"total": total, "items": out})
}

type adjustRequest struct {
	ProductID int64  `json:"product_id"`
	Delta     int    `json:"delta"`
	Note      string `json:"note,omitempty"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	var actorID int64
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		actorID = p.UserID
	}
	newStock, err := h.service.Adjust(r.Context(), AdjustmentInput{
		ProductID: req.ProductID,
		Delta:     req.Delta,
		ActorID:   actorID,
		Note:      req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrNegativeStock):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("adjust inventory", slog.Any("error", err), slog.Int64("product_id", req.ProductID))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Success(w, "stock adjusted", map[string]any{"new_stock": newStock})
}

func itemResponse(it Item) map[string]any {
	return map[string]any{
		"product_id":     it.ProductID,
		"product_name":   it.ProductName,
		"stock_quantity": it.StockQuantity,
		"last_restocked": it.LastRestocked.Format(time.RFC3339),
	}
}
