package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Mode selects how much work verification does for a request.
type Mode string

const (
	// ModeBasic trusts the signed claims alone.
	ModeBasic Mode = "basic"
	// ModeStrong also reconciles the subject against the user store.
	ModeStrong Mode = "strong"
	// ModeSkip ignores any bearer credential. The request proceeds
	// unauthenticated.
	ModeSkip Mode = "skip"
)

// Rule binds a method and path prefix to a verification mode. An empty
// Method matches every method; an empty PathPrefix matches every path.
type Rule struct {
	Method     string
	PathPrefix string
	Mode       Mode
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	return strings.HasPrefix(path, r.PathPrefix)
}

// Policy is an ordered rule table. The first matching rule wins; requests
// matching no rule use Default, and an unset Default means strong.
type Policy struct {
	Rules   []Rule
	Default Mode
}

// ModeFor returns the verification mode for a request.
func (p Policy) ModeFor(method, path string) Mode {
	for _, rule := range p.Rules {
		if rule.matches(method, path) {
			return rule.Mode
		}
	}
	if p.Default == "" {
		return ModeStrong
	}
	return p.Default
}

// credentialRules route the endpoints that hand out or revoke credentials
// past verification, so a stale access token cannot block them.
var credentialRules = []Rule{
	{Method: http.MethodPost, PathPrefix: "/auth/register", Mode: ModeSkip},
	{Method: http.MethodPost, PathPrefix: "/auth/login", Mode: ModeSkip},
	{Method: http.MethodPost, PathPrefix: "/auth/refresh", Mode: ModeSkip},
	{Method: http.MethodPost, PathPrefix: "/auth/logout", Mode: ModeSkip},
}

func withCredentialRules(rules ...Rule) []Rule {
	out := make([]Rule, 0, len(credentialRules)+len(rules))
	out = append(out, credentialRules...)
	return append(out, rules...)
}

// StrongPolicy reconciles every request.
func StrongPolicy() Policy {
	return Policy{Rules: withCredentialRules(), Default: ModeStrong}
}

// MethodPolicy uses basic verification for safe methods and strong
// verification for everything that mutates state.
func MethodPolicy() Policy {
	return Policy{
		Rules: withCredentialRules(
			Rule{Method: http.MethodGet, Mode: ModeBasic},
			Rule{Method: http.MethodHead, Mode: ModeBasic},
			Rule{Method: http.MethodOptions, Mode: ModeBasic},
		),
		Default: ModeStrong,
	}
}

// PolicyFromName resolves a configured policy name.
func PolicyFromName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "method":
		return MethodPolicy(), nil
	case "strong":
		return StrongPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("auth: unknown verification policy %q", name)
	}
}
