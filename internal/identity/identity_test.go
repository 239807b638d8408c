package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(secret, "", nil)
	require.NoError(t, err)
	return v
}

func TestVerifyRoundTrip(t *testing.T) {
	v := newVerifier(t)
	tok, err := IssueToken(secret, User{ID: "user_1", FirstName: "Ada"}, time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "user_1", FirstName: "Ada"}, u)
}

func TestVerifyFallsBackToName(t *testing.T) {
	v := newVerifier(t)
	claims := &Claims{Name: "Grace Hopper", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.FirstName)
}

func TestVerifyRejects(t *testing.T) {
	v := newVerifier(t)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString([]byte(secret))
	wrongKey, _ := IssueToken("other", User{ID: "u"}, time.Hour)
	noSubject, _ := IssueToken(secret, User{}, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}).SignedString([]byte(secret))

	for name, tok := range map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"garbage":    "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestFromRequestSources(t *testing.T) {
	v := newVerifier(t)
	tok, _ := IssueToken(secret, User{ID: "bearer"}, time.Hour)
	cookieTok, _ := IssueToken(secret, User{ID: "cookie"}, time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := v.FromRequest(r)
	assert.ErrorIs(t, err, ErrNoToken)

	r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: cookieTok})
	u, err := v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie", u.ID)

	r.Header.Set("Authorization", "Bearer "+tok)
	u, err = v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "bearer", u.ID)
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t)
	var got User
	var signedIn bool
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, signedIn = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, signedIn)

	tok, _ := IssueToken(secret, User{ID: "u1", FirstName: "Ada"}, time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: tok})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, signedIn)
	assert.Equal(t, "Ada", got.FirstName)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("", "", nil)
	assert.Error(t, err)
}
