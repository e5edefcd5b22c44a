package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// Config carries the externally supplied signing material and lifetimes.
type Config struct {
	AccessSecret  Secret
	RefreshSecret Secret
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Issued describes a freshly signed token.
type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Codec issues and verifies access and refresh tokens with disjoint keys.
// It holds no mutable state after construction.
type Codec struct {
	accessKey  Key
	refreshKey Key
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
	newID      func() string
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIDGenerator overrides the jti generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Codec) { c.newID = fn }
}

// NewCodec encodes the secrets into keys. Both secrets are required and must differ.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessSecret.Value() == cfg.RefreshSecret.Value() {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	c := &Codec{
		accessKey:  NewKey(cfg.AccessSecret),
		refreshKey: NewKey(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL returns the access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs an access token for subject.
func (c *Codec) IssueAccess(subject string, id Identity) (Issued, error) {
	return c.issue(c.accessKey, KindAccess, subject, id, c.accessTTL)
}

// IssueRefresh signs a refresh token for subject.
func (c *Codec) IssueRefresh(subject string) (Issued, error) {
	return c.issue(c.refreshKey, KindRefresh, subject, Identity{}, c.refreshTTL)
}

// VerifyAccess verifies tok against the access key.
func (c *Codec) VerifyAccess(tok string) (*Claims, error) {
	return Verify(tok, c.accessKey, c.verifyOptions(KindAccess))
}

// VerifyRefresh verifies tok against the refresh key and requires kind=refresh.
func (c *Codec) VerifyRefresh(tok string) (*Claims, error) {
	return Verify(tok, c.refreshKey, c.verifyOptions(KindRefresh))
}

func (c *Codec) issue(key Key, kind Kind, subject string, id Identity, ttl time.Duration) (Issued, error) {
	issuedAt := c.now()
	jti := c.newID()
	signed, err := Issue(key, IssueParams{
		ID:       jti,
		Subject:  subject,
		Issuer:   c.issuer,
		Kind:     kind,
		Identity: id,
		IssuedAt: issuedAt,
		Lifetime: ttl,
	})
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, ID: jti, ExpiresAt: issuedAt.Add(ttl)}, nil
}

func (c *Codec) verifyOptions(kind Kind) VerifyOptions {
	return VerifyOptions{Expected: kind, Issuer: c.issuer, Now: c.now}
}
