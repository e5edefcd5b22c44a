package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/token"
	"github.com/rolegate/rolegate/internal/users"
)

type stubAccountService struct {
	accounts  map[string]users.Account
	passwords map[string]string
}

func newStubAccountService() *stubAccountService {
	return &stubAccountService{accounts: map[string]users.Account{}, passwords: map[string]string{}}
}

func (s *stubAccountService) Register(_ context.Context, in users.RegisterInput) (users.Account, error) {
	if _, ok := s.accounts[in.Login]; ok {
		return users.Account{}, users.ErrLoginTaken
	}
	acct := users.Account{ID: int64(len(s.accounts) + 1), Login: in.Login, FirstName: in.FirstName, LastName: in.LastName, Role: rbac.LowestRole()}
	s.accounts[in.Login] = acct
	s.passwords[in.Login] = in.Password
	return acct, nil
}

func (s *stubAccountService) Authenticate(_ context.Context, login, password string) (users.Account, error) {
	acct, ok := s.accounts[login]
	if !ok || acct.Deleted || s.passwords[login] != password {
		return users.Account{}, shared.ErrInvalidCredentials
	}
	return acct, nil
}

func (s *stubAccountService) GetByLogin(_ context.Context, login string) (users.Account, error) {
	acct, ok := s.accounts[login]
	if !ok {
		return users.Account{}, users.ErrAccountNotFound
	}
	if acct.Deleted {
		return users.Account{}, users.ErrAccountDisabled
	}
	return acct, nil
}

type authFixture struct {
	router   http.Handler
	codec    *token.Codec
	accounts *stubAccountService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec := newTestCodec(t)
	accounts := newStubAccountService()
	handler := NewHandler(nil, accounts, codec, NewRefreshStore(client), rbac.Middleware{}, WithLoginRateLimit(0))
	pipeline := NewPipeline(NewAuthenticator(codec, nil), Policy{Default: ModeBasic}, nil, nil)

	r := chi.NewRouter()
	r.Use(pipeline.Middleware)
	r.Route("/auth", handler.MountRoutes)
	return &authFixture{router: r, codec: codec, accounts: accounts}
}

func (f *authFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodePair(t *testing.T, rr *httptest.ResponseRecorder) TokenPair {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var pair TokenPair
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestRegisterLoginMeFlow(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.post(t, "/auth/register", `{"login":"alice","password":"wonderland","first_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "wonderland")

	rr = f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	pair := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(token.DefaultAccessTTL.Seconds()), pair.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	me := httptest.NewRecorder()
	f.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	var principal shared.Principal
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &principal))
	assert.Equal(t, "alice", principal.Login)
	assert.Equal(t, "USER", principal.Role)
	assert.Equal(t, []string{"ROLE_USER", "user:read"}, principal.Authorities)
	assert.NotContains(t, me.Body.String(), pair.AccessToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)

	rr := f.post(t, "/auth/login", `{"login":"alice","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Bad credentials"}`, rr.Body.String())

	rr = f.post(t, "/auth/login", `{"login":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMeRequiresAuthentication(t *testing.T) {
	f := newAuthFixture(t)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newAuthFixture(t)
	f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)
	pair := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))

	rotated := decodePair(t, f.post(t, "/auth/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	rr := f.post(t, "/auth/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Invalid or expired token"}`, rr.Body.String())

	decodePair(t, f.post(t, "/auth/refresh", `{"refresh_token":"`+rotated.RefreshToken+`"}`))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)
	pair := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))

	rr := f.post(t, "/auth/refresh", `{"refresh_token":"`+pair.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)
	pair := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))

	acct := f.accounts.accounts["alice"]
	acct.Deleted = true
	f.accounts.accounts["alice"] = acct

	rr := f.post(t, "/auth/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"Account is disabled"}`, rr.Body.String())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	f.post(t, "/auth/register", `{"login":"alice","password":"wonderland"}`)
	first := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))
	second := decodePair(t, f.post(t, "/auth/login", `{"login":"alice","password":"wonderland"}`))

	rr := f.post(t, "/auth/logout", `{"refresh_token":"`+first.RefreshToken+`"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.post(t, "/auth/refresh", `{"refresh_token":"`+first.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.post(t, "/auth/logout", `{"refresh_token":"`+second.RefreshToken+`","all":true}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.post(t, "/auth/refresh", `{"refresh_token":"`+second.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.post(t, "/auth/logout", `{"refresh_token":"garbage"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
