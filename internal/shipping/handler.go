package shipping

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/rbac"
)

// Handler manages shipping endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the /api/shipping routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermShippingView))
		r.Get("/methods", h.listMethods)
		r.Get("/regions", h.listRegions)
		r.Get("/options", h.listOptions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermShippingEdit))
		r.Put("/rates", h.saveRate)
	})
}

// MountAjax registers the legacy /ajax endpoints.
func (h *Handler) MountAjax(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermShippingView)).Post("/calculate-shipping", h.calculate)
	r.With(h.rbac.RequireAll(rbac.PermShippingEdit)).Post("/toggle-region", h.toggleRegion)
}

type calculateRequest struct {
	MethodID  int64   `json:"methodId"`
	RegionID  int64   `json:"regionId"`
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.AjaxFail(w, http.StatusBadRequest, ErrValidation.Error())
		return
	}
	fee, err := h.service.Calculate(r.Context(), req.MethodID, req.RegionID, req.ItemCount, req.Subtotal)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation), errors.Is(err, ErrNotAvailable):
			httpx.AjaxFail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("calculate shipping", slog.Any("error", err))
			httpx.AjaxFail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.AjaxOK(w, map[string]any{"fee": fee})
}

type toggleRegionRequest struct {
	RegionID int64 `json:"region_id"`
}

func (h *Handler) toggleRegion(w http.ResponseWriter, r *http.Request) {
	var req toggleRegionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.AjaxFail(w, http.StatusBadRequest, ErrValidation.Error())
		return
	}
	isActive, err := h.service.ToggleRegion(r.Context(), req.RegionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.AjaxFail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.AjaxFail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("toggle region", slog.Any("error", err), slog.Int64("region_id", req.RegionID))
			httpx.AjaxFail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.AjaxOK(w, map[string]any{"is_active": isActive})
}

func (h *Handler) listMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListMethods(r.Context())
	if err != nil {
		h.logger.Error("list shipping methods", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		out = append(out, map[string]any{"id": m.ID, "name": m.Name, "is_active": m.IsActive})
	}
	httpx.Success(w, "", out)
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		h.logger.Error("list regions", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(regions))
	for _, rg := range regions {
		out = append(out, map[string]any{"id": rg.ID, "name": rg.Name, "is_active": rg.IsActive})
	}
	httpx.Success(w, "", out)
}

// listOptions returns methods and regions together for checkout form dropdowns.
func (h *Handler) listOptions(w http.ResponseWriter, r *http.Request) {
	var (
		methods []Method
		regions []Region
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		methods, err = h.service.ListMethods(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		regions, err = h.service.ListRegions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("list shipping options", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}

	methodOut := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		methodOut = append(methodOut, map[string]any{"id": m.ID, "name": m.Name, "is_active": m.IsActive})
	}
	regionOut := make([]map[string]any, 0, len(regions))
	for _, rg := range regions {
		regionOut = append(regionOut, map[string]any{"id": rg.ID, "name": rg.Name, "is_active": rg.IsActive})
	}
	httpx.Success(w, "", map[string]any{"methods": methodOut, "regions": regionOut})
}

type saveRateRequest struct {
	MethodID              int64   `json:"method_id"`
	RegionID              int64   `json:"region_id"`
	BaseRate              float64 `json:"base_rate"`
	PerItemFee            float64 `json:"per_item_fee"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold"`
	IsActive              bool    `json:"is_active"`
}

func (h *Handler) saveRate(w http.ResponseWriter, r *http.Request) {
	var req saveRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	id, err := h.service.SaveRate(r.Context(), Rate{
		MethodID:              req.MethodID,
		RegionID:              req.RegionID,
		BaseRate:              req.BaseRate,
		PerItemFee:            req.PerItemFee,
		FreeShippingThreshold: req.FreeShippingThreshold,
		IsActive:              req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("save shipping rate", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Success(w, "rate saved", map[string]any{"id": id})
}
