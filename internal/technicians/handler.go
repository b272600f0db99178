package technicians

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/rbac"
)

// Handler manages technician endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the /api/technicians routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermTechView))
		r.Get("/{technicianID}/assignments", h.listAssignments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermTechEdit))
		r.Post("/assignments", h.assign)
		r.Patch("/assignments/{assignmentID}", h.updateStatus)
	})
}

type assignRequest struct {
	ServiceRequestID int64  `json:"service_request_id"`
	Specialization   string `json:"specialization"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	assignment, err := h.service.Assign(r.Context(), req.ServiceRequestID, req.Specialization)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoneAvailable):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("assign technician", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Created(w, "technician assigned", map[string]any{
		"assignment_id": assignment.ID,
		"technician_id": assignment.TechnicianID,
		"status":        assignment.Status,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := strconv.ParseInt(chi.URLParam(r, "assignmentID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.service.UpdateStatus(r.Context(), assignmentID, AssignmentStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("update assignment", slog.Any("error", err), slog.Int64("assignment_id", assignmentID))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.Success(w, "assignment updated", nil)
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	technicianID, err := strconv.ParseInt(chi.URLParam(r, "technicianID"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	assignments, err := h.service.ListAssignments(r.Context(), technicianID, limit, offset)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("list assignments", slog.Any("error", err), slog.Int64("technician_id", technicianID))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, map[string]any{
			"id":                 a.ID,
			"service_request_id": a.ServiceRequestID,
			"technician_id":      a.TechnicianID,
			"status":             a.Status,
		})
	}
	httpx.Success(w, "", map[string]any{"assignments": out})
}
