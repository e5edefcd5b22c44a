package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. It reads the
// principal installed by the authentication pipeline.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a principal with 401.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.PrincipalFromContext(r.Context()) == nil {
			httpx.Unauthenticated(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the current principal has at least one of the required authorities.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Unauthenticated(w, "")
				return
			}
			if hasAnyPermission(principal.Authorities, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			m.denied(r, principal, normalized)
			httpx.Forbidden(w, "")
		})
	}
}

// RequireAll ensures the current principal has all required authorities.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Unauthenticated(w, "")
				return
			}
			if hasAllPermissions(principal.Authorities, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			m.denied(r, principal, normalized)
			httpx.Forbidden(w, "")
		})
	}
}

func (m Middleware) denied(r *http.Request, p *shared.Principal, required []string) {
	if m.Logger == nil {
		return
	}
	m.Logger.Info("access denied",
		slog.String("login", p.Login),
		slog.String("path", r.URL.Path),
		slog.Any("required", required),
	)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
