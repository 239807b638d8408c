// Package identity verifies the session token issued by the identity
// provider and carries the signed-in user through request contexts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultCookie = "__session"

var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// User is the signed-in identity. ID keys the user's records.
type User struct {
	ID        string
	FirstName string
}

// Claims is the session token payload. The subject is the user id.
type Claims struct {
	FirstName string `json:"first_name,omitempty"`
	Name      string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret []byte
	cookie string
	logger *slog.Logger
}

func NewVerifier(secret, cookie string, logger *slog.Logger) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("missing JWT secret")
	}
	if cookie == "" {
		cookie = DefaultCookie
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{secret: []byte(secret), cookie: cookie, logger: logger}, nil
}

func (v *Verifier) CookieName() string { return v.cookie }

// Verify parses and validates a token, returning its user.
func (v *Verifier) Verify(token string) (User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return User{}, ErrInvalidToken
	}
	name := claims.FirstName
	if name == "" {
		name, _, _ = strings.Cut(strings.TrimSpace(claims.Name), " ")
	}
	return User{ID: claims.Subject, FirstName: name}, nil
}

// FromRequest reads the token from the Authorization header, then the session cookie.
func (v *Verifier) FromRequest(r *http.Request) (User, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok && tok != "" {
			return v.Verify(strings.TrimSpace(tok))
		}
	}
	c, err := r.Cookie(v.cookie)
	if err != nil || c.Value == "" {
		return User{}, ErrNoToken
	}
	return v.Verify(c.Value)
}

// Middleware stores the verified user in the request context. Requests
// without a valid token pass through signed out.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := v.FromRequest(r)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				v.logger.DebugContext(r.Context(), "Rejected session token", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// IssueToken signs a session token for u. Used by the development sign-in
// route and by tests; production tokens come from the identity provider.
func IssueToken(secret string, u User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := &Claims{
		FirstName: u.FirstName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the signed-in user, if any.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok && u.ID != ""
}
