package token

import "log/slog"

const redacted = "[REDACTED]"

// Secret is signing material as read from configuration. It redacts itself
// when printed, logged or serialized; Value is the only accessor.
type Secret string

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// MarshalText keeps the secret out of JSON and YAML output.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// Value returns the raw secret.
func (s Secret) Value() string { return string(s) }

// Key is a Secret encoded once into HMAC key bytes. Keys are immutable after
// construction and safe for concurrent use.
type Key struct {
	b []byte
}

// NewKey encodes the secret into a signing key.
func NewKey(s Secret) Key {
	if s == "" {
		return Key{}
	}
	return Key{b: []byte(s)}
}

// IsZero reports whether the key carries no material.
func (k Key) IsZero() bool { return len(k.b) == 0 }

func (k Key) String() string   { return redacted }
func (k Key) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (k Key) LogValue() slog.Value { return slog.StringValue(redacted) }
