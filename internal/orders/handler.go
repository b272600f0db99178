package orders

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

// Handler manages order endpoints.
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

// MountRoutes registers the /api/orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermOrdersView))
		r.Get("/", h.list)
		r.Get("/{orderID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermOrdersEdit))
		r.Post("/", h.create)
		r.Patch("/{orderID}/status", h.updateStatus)
		r.Patch("/{orderID}/tracking", h.setTracking)
		r.Delete("/{orderID}", h.remove)
	})
}

type itemRequest struct {
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	ServiceType string  `json:"service_type,omitempty"`
	ServiceCost float64 `json:"service_cost,omitempty" validate:"gte=0"`
}

type createRequest struct {
	CustomerID     int64         `json:"customer_id" validate:"required,gt=0"`
	Items          []itemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingFee    float64       `json:"shipping_fee" validate:"gte=0"`
	DiscountAmount float64       `json:"discount_amount" validate:"gte=0"`
	CouponID       int64         `json:"coupon_id,omitempty"`
	PaymentMethod  string        `json:"payment_method"`
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
	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemInput{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ServiceType: it.ServiceType,
			ServiceCost: it.ServiceCost,
		})
	}
	order, err := h.service.Create(r.Context(), CreateInput{
		CustomerID:     req.CustomerID,
		Items:          items,
		ShippingFee:    req.ShippingFee,
		DiscountAmount: req.DiscountAmount,
		CouponID:       req.CouponID,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCustomerNotFound):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInsufficientStock):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("create order", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Created(w, "order created", map[string]any{
		"order_id": order.ID,
		"total":    order.TotalAmount,
	})
}

type statusRequest struct {
	Status        string `json:"status" validate:"required"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), orderID, Status(req.Status), PaymentStatus(req.PaymentStatus))
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("update order status", slog.Any("error", err), slog.Int64("order_id", orderID))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Success(w, "order updated", orderResponse(order))
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

func (h *Handler) setTracking(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	var req trackingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.service.SetTracking(r.Context(), orderID, req.TrackingNumber); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("set tracking", slog.Any("error", err), slog.Int64("order_id", orderID))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Success(w, "tracking updated", nil)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get order", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Success(w, "", orderResponse(order))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	orders, total, err := h.service.List(r.Context(), ListFilter{
		Status:        Status(q.Get("status")),
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		Search:        q.Get("search"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	httpx.Success(w, "", map[string]any{
		"orders":     out,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), orderID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("delete order", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Success(w, "order deleted", nil)
}

func orderResponse(o Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"product_id":   it.ProductID,
			"quantity":     it.Quantity,
			"unit_price":   it.UnitPrice,
			"subtotal":     it.Subtotal,
			"service_type": it.ServiceType,
			"service_cost": it.ServiceCost,
		})
	}
	resp := map[string]any{
		"id":              o.ID,
		"customer_id":     o.CustomerID,
		"status":          o.Status,
		"payment_status":  o.PaymentStatus,
		"subtotal":        o.Subtotal,
		"discount_amount": o.DiscountAmount,
		"shipping_fee":    o.ShippingFee,
		"total_amount":    o.TotalAmount,
		"coupon_id":       o.CouponID,
		"tracking_number": o.TrackingNumber,
		"created_at":      o.CreatedAt.Format(time.RFC3339),
	}
	if len(items) > 0 {
		resp["items"] = items
	}
	return resp
}
