package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rolegate/rolegate/internal/observability"
	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/token"
	"github.com/rolegate/rolegate/internal/users"
)

// Messages written on rejected credentials.
const (
	MessageInvalidToken    = "Invalid or expired token"
	MessageExpiredToken    = "Token has expired"
	MessageAccountDisabled = "Account is disabled"
)

const bearerScheme = "bearer"

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, credential, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", false
	}
	return credential, true
}

// Pipeline authenticates every request that carries a bearer credential.
type Pipeline struct {
	authenticator *Authenticator
	policy        Policy
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewPipeline constructs a Pipeline.
func NewPipeline(authenticator *Authenticator, policy Policy, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{authenticator: authenticator, policy: policy, logger: logger, metrics: metrics}
}

// Middleware installs the principal for requests with a valid credential.
// Requests without a bearer credential, or routed to ModeSkip, pass through
// unauthenticated; invalid
// credentials stop with 401 and internal failures with 500.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.ClearPrincipal(r.Context())
		raw, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		mode := p.policy.ModeFor(r.Method, r.URL.Path)
		if mode == ModeSkip {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		principal, err := p.authenticator.Authenticate(ctx, raw, mode)
		if err != nil {
			p.reject(w, r, mode, err)
			return
		}

		p.metrics.ObserveAuth(string(mode), observability.OutcomeAuthenticated)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(ctx, principal)))
	})
}

func (p *Pipeline) reject(w http.ResponseWriter, r *http.Request, mode Mode, err error) {
	message, rejected := rejectionMessage(err)
	if !rejected {
		p.metrics.ObserveAuth(string(mode), observability.OutcomeError)
		p.logger.Error("authentication failed",
			slog.String("path", r.URL.Path),
			slog.String("mode", string(mode)),
			slog.Any("error", err),
		)
		httpx.Message(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
		return
	}

	p.metrics.ObserveAuth(string(mode), observability.OutcomeRejected)
	p.logger.Debug("credential rejected",
		slog.String("path", r.URL.Path),
		slog.String("mode", string(mode)),
		slog.Any("error", err),
	)
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	httpx.Unauthenticated(w, message)
}

// rejectionMessage maps credential failures to their 401 message. The second
// result is false for failures that are not the caller's fault.
func rejectionMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return MessageExpiredToken, true
	case errors.Is(err, token.ErrInvalidToken), rbac.IsUnknownRole(err):
		return MessageInvalidToken, true
	case errors.Is(err, users.ErrAccountDisabled):
		return MessageAccountDisabled, true
	default:
		return "", false
	}
}
