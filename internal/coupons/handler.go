package coupons

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/rbac"
	"github.com/zellow-enterprises/zellow/internal/shared"
)

// Handler manages coupon endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers the /api/coupons routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermCouponsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermCouponsEdit))
		r.Post("/", h.create)
	})
}

// MountAjax registers the legacy /ajax endpoints.
func (h *Handler) MountAjax(r chi.Router) {
	r.Post("/validate-coupon", h.validate)
}

type validateRequest struct {
	Code       string  `json:"code"`
	OrderTotal float64 `json:"order_total"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.AjaxFail(w, http.StatusBadRequest, ErrValidation.Error())
		return
	}
	var userID int64
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		userID = p.UserID
	}
	result, err := h.service.Validate(r.Context(), req.Code, userID, req.OrderTotal)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.AjaxFail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("validate coupon", slog.Any("error", err), slog.String("code", req.Code))
		httpx.AjaxFail(w, http.StatusInternalServerError, "internal error")
		return
	}
	fields := map[string]any{"valid": result.Valid, "message": result.Message}
	if result.Valid {
		fields["coupon_id"] = result.CouponID
		fields["discount_type"] = result.DiscountType
		fields["discount_value"] = result.DiscountValue
	}
	httpx.AjaxOK(w, fields)
}

type createRequest struct {
	Code              string  `json:"code" validate:"required"`
	DiscountType      string  `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     float64 `json:"discount_value" validate:"required,gt=0"`
	StartDate         string  `json:"start_date" validate:"required"`
	EndDate           string  `json:"end_date" validate:"required"`
	MinOrderAmount    float64 `json:"min_order_amount" validate:"gte=0"`
	UsageLimitTotal   int     `json:"usage_limit_total" validate:"gte=0"`
	UsageLimitPerUser int     `json:"usage_limit_per_user" validate:"gte=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	coupon, err := h.service.Create(r.Context(), CreateInput{
		Code:              req.Code,
		DiscountType:      DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		StartDate:         start,
		EndDate:           end.Add(24*time.Hour - time.Second),
		MinOrderAmount:    req.MinOrderAmount,
		UsageLimitTotal:   req.UsageLimitTotal,
		UsageLimitPerUser: req.UsageLimitPerUser,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create coupon", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Created(w, "coupon created", couponResponse(coupon))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	coupons, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list coupons", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, couponResponse(c))
	}
	httpx.Success(w, "", map[string]any{"total": total, "coupons": out})
}

func couponResponse(c Coupon) map[string]any {
	return map[string]any{
		"id":                   c.ID,
		"code":                 c.Code,
		"discount_type":        c.DiscountType,
		"discount_value":       c.DiscountValue,
		"start_date":           c.StartDate.Format("2006-01-02"),
		"end_date":             c.EndDate.Format("2006-01-02"),
		"min_order_amount":     c.MinOrderAmount,
		"usage_limit_total":    c.UsageLimitTotal,
		"usage_limit_per_user": c.UsageLimitPerUser,
		"times_used":           c.TimesUsed,
		"status":               c.Status,
	}
}
