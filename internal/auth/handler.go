package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate/internal/observability"
	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/token"
	"github.com/rolegate/rolegate/internal/users"
)

// MessageBadCredentials is written when login fails.
const MessageBadCredentials = "Bad credentials"

// AccountService is the subset of the user service used by the auth endpoints.
type AccountService interface {
	Register(ctx context.Context, in users.RegisterInput) (users.Account, error)
	Authenticate(ctx context.Context, login, password string) (users.Account, error)
	GetByLogin(ctx context.Context, login string) (users.Account, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	accounts       AccountService
	codec          *token.Codec
	refresh        *RefreshStore
	metrics        *observability.Metrics
	rbac           rbac.Middleware
	validator      *validator.Validate
	loginRateLimit int
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithLoginRateLimit caps login attempts per client IP per minute. Zero
// disables the limit.
func WithLoginRateLimit(perMinute int) HandlerOption {
	return func(h *Handler) { h.loginRateLimit = perMinute }
}

// WithMetrics records issued tokens.
func WithMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, accounts AccountService, codec *token.Codec, refresh *RefreshStore, rbac rbac.Middleware, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		logger:         logger,
		accounts:       accounts,
		codec:          codec,
		refresh:        refresh,
		rbac:           rbac,
		validator:      httpx.NewValidator(),
		loginRateLimit: 10,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Group(func(r chi.Router) {
		if h.loginRateLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginRateLimit, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
	r.With(h.rbac.RequireAuthenticated).Get("/me", h.handleMe)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	All          bool   `json:"all"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	acct, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.logger.Warn("register failed", slog.String("login", in.Login), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("account registered", slog.String("login", acct.Login))
	httpx.JSON(w, http.StatusCreated, acct)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	acct, err := h.accounts.Authenticate(r.Context(), in.Login, in.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("login", in.Login))
			httpx.Unauthenticated(w, MessageBadCredentials)
			return
		}
		h.logger.Error("login failed", slog.String("login", in.Login), slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	h.respondWithTokens(w, r, acct)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	claims, err := h.codec.VerifyRefresh(in.RefreshToken)
	if err != nil {
		h.rejectToken(w, err)
		return
	}
	login, err := h.refresh.Consume(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			h.logger.Warn("refresh token reuse", slog.String("login", claims.Subject))
			h.rejectToken(w, err)
			return
		}
		h.logger.Error("consume refresh token", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	if login != claims.Subject {
		h.rejectToken(w, token.ErrInvalidToken)
		return
	}
	acct, err := h.accounts.GetByLogin(r.Context(), login)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrAccountDisabled):
			httpx.Unauthenticated(w, MessageAccountDisabled)
		case errors.Is(err, users.ErrAccountNotFound):
			httpx.Unauthenticated(w, MessageInvalidToken)
		default:
			h.logger.Error("refresh lookup failed", slog.Any("error", err))
			httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		}
		return
	}
	h.respondWithTokens(w, r, acct)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	claims, err := h.codec.VerifyRefresh(in.RefreshToken)
	if err != nil {
		// Already unusable; nothing to revoke.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if in.All {
		err = h.refresh.RevokeAll(r.Context(), claims.Subject)
	} else {
		err = h.refresh.Revoke(r.Context(), claims.ID)
	}
	if err != nil {
		h.logger.Error("logout failed", slog.String("login", claims.Subject), slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, shared.PrincipalFromContext(r.Context()))
}

func (h *Handler) respondWithTokens(w http.ResponseWriter, r *http.Request, acct users.Account) {
	access, err := h.codec.IssueAccess(acct.Login, token.Identity{
		FirstName:   acct.FirstName,
		LastName:    acct.LastName,
		Role:        string(acct.Role),
		Permissions: acct.Permissions,
	})
	if err != nil {
		h.logger.Error("issue access token", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	refresh, err := h.codec.IssueRefresh(acct.Login)
	if err != nil {
		h.logger.Error("issue refresh token", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	if err := h.refresh.Save(r.Context(), refresh.ID, acct.Login, h.codec.RefreshTTL()); err != nil {
		h.logger.Error("store refresh token", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}
	h.metrics.ObserveIssued(string(token.KindAccess))
	h.metrics.ObserveIssued(string(token.KindRefresh))

	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.codec.AccessTTL().Seconds()),
	})
}

func (h *Handler) rejectToken(w http.ResponseWriter, err error) {
	message := MessageInvalidToken
	if errors.Is(err, token.ErrTokenExpired) {
		message = MessageExpiredToken
	}
	httpx.Unauthenticated(w, message)
}
