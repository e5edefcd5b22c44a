package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAccessKey  = NewKey("access-secret-that-is-long-enough-000")
	testRefreshKey = NewKey("refresh-secret-that-is-long-enough-11")
)

func issueParams(issuedAt time.Time, lifetime time.Duration) IssueParams {
	return IssueParams{
		ID:       "4b1e0d2c-1111-4a4a-9a9a-000000000001",
		Subject:  "alice",
		Issuer:   "rolegate",
		Kind:     KindAccess,
		IssuedAt: issuedAt,
		Lifetime: lifetime,
		Identity: Identity{
			FirstName:   "Alice",
			LastName:    "Liddell",
			Role:        "MANAGER",
			Permissions: []string{"report:export"},
		},
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	lifetimes := []time.Duration{time.Second * 5, time.Minute, 15 * time.Minute, 14 * 24 * time.Hour}
	for _, lifetime := range lifetimes {
		t.Run(lifetime.String(), func(t *testing.T) {
			now := time.Now()
			p := issueParams(now, lifetime)

			tok, err := Issue(testAccessKey, p)
			require.NoError(t, err)

			claims, err := Verify(tok, testAccessKey, VerifyOptions{Expected: KindAccess, Issuer: "rolegate"})
			require.NoError(t, err)

			assert.Equal(t, p.Subject, claims.Subject)
			assert.Equal(t, p.ID, claims.ID)
			assert.Equal(t, KindAccess, claims.Kind)
			assert.Equal(t, p.Identity, claims.Identity())
			assert.Equal(t, now.Truncate(time.Second).Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, now.Add(lifetime).Truncate(time.Second).Unix(), claims.ExpiresAt.Unix())
		})
	}
}

func TestIssueIsDeterministic(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := issueParams(issuedAt, time.Hour)

	first, err := Issue(testAccessKey, p)
	require.NoError(t, err)
	second, err := Issue(testAccessKey, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIssueRejectsBadParams(t *testing.T) {
	now := time.Now()

	_, err := Issue(testAccessKey, issueParams(now, 0))
	assert.Error(t, err)

	p := issueParams(now, time.Minute)
	p.Subject = ""
	_, err = Issue(testAccessKey, p)
	assert.Error(t, err)

	p = issueParams(now, time.Minute)
	p.Kind = "session"
	_, err = Issue(testAccessKey, p)
	assert.Error(t, err)

	_, err = Issue(Key{}, issueParams(now, time.Minute))
	assert.Error(t, err)
}

func TestRefreshTokenCarriesNoIdentity(t *testing.T) {
	p := issueParams(time.Now(), time.Hour)
	p.Kind = KindRefresh

	tok, err := Issue(testRefreshKey, p)
	require.NoError(t, err)

	claims, err := Verify(tok, testRefreshKey, VerifyOptions{Expected: KindRefresh})
	require.NoError(t, err)
	assert.Equal(t, Identity{}, claims.Identity())
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	tok, err := Issue(testAccessKey, issueParams(time.Now(), time.Hour))
	require.NoError(t, err)

	dot := strings.LastIndex(tok, ".")
	require.Positive(t, dot)
	signature := tok[dot+1:]

	// The final base64url character may only carry padding bits, so it is
	// excluded: every other position maps onto signature bytes.
	for i := 0; i < len(signature)-1; i++ {
		replacement := byte('A')
		if signature[i] == 'A' {
			replacement = 'B'
		}
		tampered := tok[:dot+1] + signature[:i] + string(replacement) + signature[i+1:]

		_, err := Verify(tampered, testAccessKey, VerifyOptions{})
		require.ErrorIs(t, err, ErrInvalidToken, "position %d", i)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	tok, err := Issue(testAccessKey, issueParams(time.Now(), time.Hour))
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	forged, err := Issue(NewKey("attacker-chosen-secret-of-some-length"), func() IssueParams {
		p := issueParams(time.Now(), time.Hour)
		p.Identity.Role = "SUPER_ADMIN"
		return p
	}())
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]
	_, err = Verify(spliced, testAccessKey, VerifyOptions{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiry(t *testing.T) {
	lifetime := 15 * time.Minute
	now := time.Now()

	expired, err := Issue(testAccessKey, issueParams(now.Add(-lifetime-time.Second), lifetime))
	require.NoError(t, err)
	_, err = Verify(expired, testAccessKey, VerifyOptions{})
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := Issue(testAccessKey, issueParams(now, lifetime))
	require.NoError(t, err)
	_, err = Verify(fresh, testAccessKey, VerifyOptions{})
	assert.NoError(t, err)
}

func TestVerifyUsesInjectedClock(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tok, err := Issue(testAccessKey, issueParams(issuedAt, time.Hour))
	require.NoError(t, err)

	_, err = Verify(tok, testAccessKey, VerifyOptions{Now: func() time.Time { return issuedAt.Add(59 * time.Minute) }})
	assert.NoError(t, err)

	_, err = Verify(tok, testAccessKey, VerifyOptions{Now: func() time.Time { return issuedAt.Add(61 * time.Minute) }})
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := Issue(testAccessKey, issueParams(time.Now(), time.Hour))
	require.NoError(t, err)

	_, err = Verify(tok, testRefreshKey, VerifyOptions{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongKindEvenWithValidSignature(t *testing.T) {
	p := issueParams(time.Now(), time.Hour)
	p.Kind = KindAccess
	tok, err := Issue(testRefreshKey, p)
	require.NoError(t, err)

	_, err = Verify(tok, testRefreshKey, VerifyOptions{Expected: KindRefresh})
	assert.ErrorIs(t, err, ErrWrongKind)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	tok, err := Issue(testAccessKey, issueParams(time.Now(), time.Hour))
	require.NoError(t, err)

	_, err = Verify(tok, testAccessKey, VerifyOptions{Issuer: "someone-else"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: KindAccess,
		Role: "SUPER_ADMIN",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Verify(tok, testAccessKey, VerifyOptions{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b.c", "..."} {
		_, err := Verify(tok, testAccessKey, VerifyOptions{})
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
