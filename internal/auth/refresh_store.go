package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rolegate/rolegate/internal/token"
)

// ErrRefreshTokenRevoked is returned for refresh tokens that were already
// used, revoked or never issued.
var ErrRefreshTokenRevoked = fmt.Errorf("%w: refresh token revoked", token.ErrInvalidToken)

const refreshKeyPrefix = "rolegate:refresh:"

// RefreshStore tracks live refresh tokens by jti so each can be used once.
type RefreshStore struct {
	client *redis.Client
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

func tokenKey(jti string) string   { return refreshKeyPrefix + "jti:" + jti }
func loginKey(login string) string { return refreshKeyPrefix + "login:" + login }

// Save records a refresh token for login until ttl elapses.
func (s *RefreshStore) Save(ctx context.Context, jti, login string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(jti), login, ttl)
		pipe.SAdd(ctx, loginKey(login), jti)
		pipe.Expire(ctx, loginKey(login), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("auth: save refresh token: %w", err)
	}
	return nil
}

// Consume atomically removes the token and returns its login.
func (s *RefreshStore) Consume(ctx context.Context, jti string) (string, error) {
	login, err := s.client.GetDel(ctx, tokenKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshTokenRevoked
	}
	if err != nil {
		return "", fmt.Errorf("auth: consume refresh token: %w", err)
	}
	if err := s.client.SRem(ctx, loginKey(login), jti).Err(); err != nil {
		return "", fmt.Errorf("auth: consume refresh token: %w", err)
	}
	return login, nil
}

// Revoke drops a single refresh token. Unknown tokens are ignored.
func (s *RefreshStore) Revoke(ctx context.Context, jti string) error {
	login, err := s.client.GetDel(ctx, tokenKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	if err := s.client.SRem(ctx, loginKey(login), jti).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll drops every refresh token issued to login.
func (s *RefreshStore) RevokeAll(ctx context.Context, login string) error {
	jtis, err := s.client.SMembers(ctx, loginKey(login)).Result()
	if err != nil {
		return fmt.Errorf("auth: revoke refresh tokens: %w", err)
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, tokenKey(jti))
	}
	keys = append(keys, loginKey(login))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh tokens: %w", err)
	}
	return nil
}
