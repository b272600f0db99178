package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
)

// Handler serves the /api/auth routes, which are excluded from the JWT guard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    TokenConfig
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens TokenConfig) *Handler {
	return &Handler{logger: logger, service: service, tokens: tokens, validator: validator.New()}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/register", h.register)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}

	token, err := MintToken(h.tokens, time.Now(), user)
	if err != nil {
		h.logger.Error("mint token", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}

	httpx.Success(w, "login successful", map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Error("register user", slog.Any("error", err))
		switch err {
		case ErrEmailTaken:
			httpx.Error(w, httpx.ErrDuplicate)
		case ErrWeakPassword:
			httpx.Error(w, httpx.ErrValidation)
		default:
			httpx.Error(w, err)
		}
		return
	}

	httpx.Created(w, "account created", userResponse{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}
