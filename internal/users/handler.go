package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

const maxPageSize = 200

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(string(rbac.PermUserRead))).Get("/", h.listUsers)
	r.With(h.rbac.RequireAny(string(rbac.PermUserRead))).Get("/{id}", h.getUser)
	r.With(h.rbac.RequireAny(string(rbac.PermUserCreate))).Post("/", h.createUser)
	r.With(h.rbac.RequireAny(string(rbac.PermUserUpdate))).Put("/{id}", h.updateUser)
	r.With(h.rbac.RequireAny(string(rbac.PermUserPromote))).Post("/{id}/promote", h.promoteUser)
	r.With(h.rbac.RequireAny(string(rbac.PermUserDemote))).Post("/{id}/demote", h.demoteUser)
	r.With(h.rbac.RequireAny(string(rbac.PermUserDelete))).Delete("/{id}", h.deleteUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Limit: 50}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}
	filter.IncludeDeleted = q.Get("include_deleted") == "true"

	accounts, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acct)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	grants, err := ParseGrants(in.Permissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Unauthenticated(w, "")
		return
	}
	if in.Role != "" && !rbac.Role(principal.Role).AtLeast(rbac.Role(in.Role)) {
		httpx.Forbidden(w, "")
		return
	}
	for _, perm := range grants {
		if !principal.HasAuthority(perm) {
			h.logger.Info("grant above actor authority refused",
				slog.String("login", principal.Login),
				slog.String("permission", perm),
			)
			httpx.Forbidden(w, "")
			return
		}
	}
	in.Permissions = grants
	acct, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create user failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, acct)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if !httpx.Bind(w, r, h.validator, &in) {
		return
	}
	acct, err := h.service.UpdateNames(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acct)
}

func (h *Handler) promoteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.Promote(r.Context(), actorRole(r), id)
	if err != nil {
		h.fail(w, "promote user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acct)
}

func (h *Handler) demoteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.Demote(r.Context(), actorRole(r), id)
	if err != nil {
		h.fail(w, "demote user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acct)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete user failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Warn(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Message(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return id, true
}

func actorRole(r *http.Request) rbac.Role {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return rbac.Role(p.Role)
	}
	return ""
}
