package ledger

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

// Handler manages transaction endpoints.
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

// MountRoutes registers the /api/transactions routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermLedgerView))
		r.Get("/", h.list)
		r.Get("/summary", h.summary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermLedgerEdit))
		r.Post("/", h.record)
	})
}

func filterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	var f Filter
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = t.Add(24*time.Hour - time.Second)
		}
	}
	f.PaymentMethod = q.Get("payment_method")
	f.Status = PaymentStatus(q.Get("status"))
	f.Search = q.Get("search")
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	transactions, total, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, 0, len(transactions))
	for _, tr := range transactions {
		out = append(out, transactionResponse(tr))
	}
	page := 1
	if f.Limit > 0 {
		page = f.Offset/f.Limit + 1
	}
	httpx.Success(w, "", map[string]any{
		"transactions": out,
		"pagination":   shared.NewPagination(page, f.Limit, total),
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("transaction summary", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Success(w, "", sum)
}

type recordRequest struct {
	ReferenceID   string  `json:"reference_id" validate:"required"`
	Type          string  `json:"transaction_type" validate:"required"`
	OrderID       int64   `json:"order_id"`
	Amount        float64 `json:"amount" validate:"required"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	tr, err := h.service.Record(r.Context(), Input{
		ReferenceID:   req.ReferenceID,
		Type:          Type(req.Type),
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("record transaction", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tr.ID == 0 {
		httpx.Success(w, "transaction already recorded", nil)
		return
	}
	httpx.Created(w, "transaction recorded", transactionResponse(tr))
}

func transactionResponse(tr Transaction) map[string]any {
	return map[string]any{
		"id":               tr.ID,
		"reference_id":     tr.ReferenceID,
		"transaction_type": tr.Type,
		"order_id":         tr.OrderID,
		"total_amount":     tr.Amount,
		"payment_method":   tr.PaymentMethod,
		"payment_status":   tr.PaymentStatus,
		"transaction_date": tr.Date.Format(time.RFC3339),
	}
}
