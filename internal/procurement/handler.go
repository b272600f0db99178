package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/rbac"
)

// Handler manages purchase order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the /api/purchase-orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermPOView))
		r.Get("/", h.list)
		r.Get("/{poID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermPOEdit))
		r.Post("/", h.create)
		r.Post("/{poID}/payments", h.recordPayment)
	})
}

// MountAjax registers the legacy /ajax receiving endpoints.
func (h *Handler) MountAjax(r chi.Router) {
	r.With(h.rbac.RequireAll(rbac.PermPOEdit)).Post("/receive-items", h.receiveItems)
	r.With(h.rbac.RequireAll(rbac.PermPOEdit)).Post("/update-received-quantity", h.updateReceivedQuantity)
}

type receiveRequest struct {
	POID     int64 `json:"po_id"`
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) receiveItems(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.AjaxFail(w, http.StatusBadRequest, ErrValidation.Error())
		return
	}
	var (
		receipt Receipt
		err     error
	)
	if req.ItemID > 0 {
		receipt, err = h.service.ReceiveItem(r.Context(), req.POID, req.ItemID, req.Quantity)
	} else {
		receipt, err = h.service.ReceiveAll(r.Context(), req.POID)
	}
	if err != nil {
		h.respondReceiveError(w, err, req.POID)
		return
	}
	httpx.AjaxOK(w, map[string]any{
		"status":    receipt.Status,
		"remaining": receipt.Remaining,
		"received":  receipt.Received,
	})
}

func (h *Handler) updateReceivedQuantity(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.AjaxFail(w, http.StatusBadRequest, ErrValidation.Error())
		return
	}
	receipt, err := h.service.ReceiveItem(r.Context(), req.POID, req.ItemID, req.Quantity)
	if err != nil {
		h.respondReceiveError(w, err, req.POID)
		return
	}
	httpx.AjaxOK(w, map[string]any{
		"message":   "quantity received",
		"status":    receipt.Status,
		"new_stock": receipt.NewStock,
		"progress":  receipt.Progress,
		"remaining": receipt.Remaining,
		"received":  receipt.Received,
	})
}

func (h *Handler) respondReceiveError(w http.ResponseWriter, err error, poID int64) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrExceedsRemaining), errors.Is(err, ErrNothingToReceive):
		httpx.AjaxFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.AjaxFail(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("receive items", slog.Any("error", err), slog.Int64("po_id", poID))
		httpx.AjaxFail(w, http.StatusInternalServerError, "internal error")
	}
}

type createItemRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createRequest struct {
	SupplierID int64               `json:"supplier_id"`
	Items      []createItemRequest `json:"items"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	po, err := h.service.Create(r.Context(), CreateInput{SupplierID: req.SupplierID, Items: items})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create purchase order", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Created(w, "purchase order created", map[string]any{
		"po_id": po.ID,
		"total": po.TotalAmount,
	})
}

type paymentRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "poID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	status, err := h.service.RecordPayment(r.Context(), poID, req.Amount, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("record purchase payment", slog.Any("error", err), slog.Int64("po_id", poID))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Success(w, "payment recorded", map[string]any{"payment_status": status})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	poID, err := strconv.ParseInt(chi.URLParam(r, "poID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	po, err := h.service.Get(r.Context(), poID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get purchase order", slog.Any("error", err), slog.Int64("po_id", poID))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Success(w, "", poResponse(po))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	orders, total, err := h.service.List(r.Context(), Status(q.Get("status")), limit, offset)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, po := range orders {
		out = append(out, poResponse(po))
	}
	httpx.Success(w, "", map[string]any{"total": total, "purchase_orders": out})
}

func poResponse(po PurchaseOrder) map[string]any {
	items := make([]map[string]any, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, map[string]any{
			"item_id":           it.ID,
			"product_id":        it.ProductID,
			"quantity":          it.Quantity,
			"received_quantity": it.ReceivedQuantity,
			"unit_price":        it.UnitPrice,
		})
	}
	resp := map[string]any{
		"id":             po.ID,
		"supplier_id":    po.SupplierID,
		"total_amount":   po.TotalAmount,
		"status":         po.Status,
		"payment_status": po.PaymentStatus,
		"amount_paid":    po.AmountPaid,
		"created_at":     po.CreatedAt.Format(time.RFC3339),
	}
	if len(items) > 0 {
		resp["items"] = items
	}
	return resp
}
