package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
)

// RepositoryPort describes the masterdata reads the handler serves.
type RepositoryPort interface {
	ListProducts(ctx context.Context, categoryID int64, limit, offset int) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// Handler serves the public catalog routes, which sit outside the JWT guard.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers the public listing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/list", h.listProducts)
	r.Get("/categories/list", h.listCategories)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	products, err := h.repo.ListProducts(r.Context(), categoryID, limit, offset)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Success(w, "", map[string]any{"products": products})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Success(w, "", map[string]any{"categories": categories})
}
