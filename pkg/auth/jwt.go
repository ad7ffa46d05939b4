// Package auth provides the JWT issuance/validation used to guard the
// admin introspection surface and the Lambda deployment adapter. It
// authored fresh against the usage contract the teacher corpus implies
// (a JWTConfig/JWTValidator/Claims/UserContext API consumed by an HTTP
// middleware) but never itself defines in the retrieved snapshot.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpiredToken is returned when a presented token's exp claim has
// passed.
var ErrExpiredToken = errors.New("auth: token expired")

// ErrInvalidSignature is returned when a token's signature cannot be
// verified against the configured secret.
var ErrInvalidSignature = errors.New("auth: invalid token signature")

// ErrMissingToken is returned when no bearer token is present on the
// request.
var ErrMissingToken = errors.New("auth: missing bearer token")

// JWTConfig configures a JWTValidator / JWTGenerator pair.
type JWTConfig struct {
	Secret string
	Issuer string
}

// Claims is the token payload: a subject (operator identity) plus roles.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// UserContext is what gets attached to the request context after a
// token validates successfully.
type UserContext struct {
	Subject string
	Roles   []string
}

type contextKey string

const userContextKey contextKey = "gqlcache.auth.user"

// SetUserInContext attaches a UserContext to ctx.
func SetUserInContext(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// GetUserFromContext retrieves the UserContext attached by
// SetUserInContext, if any.
func GetUserFromContext(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(userContextKey).(UserContext)
	return u, ok
}

// JWTValidator verifies bearer tokens against a shared secret.
type JWTValidator struct {
	cfg JWTConfig
}

// NewJWTValidator constructs a validator from config.
func NewJWTValidator(cfg JWTConfig) *JWTValidator {
	return &JWTValidator{cfg: cfg}
}

// Validate parses and verifies a raw JWT string, returning its claims.
func (v *JWTValidator) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return []byte(v.cfg.Secret), nil
	}, jwt.WithIssuer(v.cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidSignature
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// JWTGeneratorConfig configures token issuance.
type JWTGeneratorConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// JWTGenerator issues signed operator tokens for the admin surface.
type JWTGenerator struct {
	cfg JWTGeneratorConfig
}

// NewJWTGenerator constructs a generator from config.
func NewJWTGenerator(cfg JWTGeneratorConfig) *JWTGenerator {
	return &JWTGenerator{cfg: cfg}
}

// Issue mints a signed token for the given subject and roles.
func (g *JWTGenerator) Issue(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    g.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.TTL)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(g.cfg.Secret))
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// Middleware returns an http middleware that validates a bearer token
// and attaches a UserContext on success, responding 401 otherwise.
func Middleware(validator *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extractToken(r)
			if err != nil {
				respondUnauthorized(w, err)
				return
			}
			claims, err := validator.Validate(raw)
			if err != nil {
				respondUnauthorized(w, err)
				return
			}
			ctx := SetUserInContext(r.Context(), UserContext{Subject: claims.Subject, Roles: claims.Roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + err.Error() + `"}`))
}

// RequireRole returns a middleware that 403s unless the authenticated
// user carries the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := GetUserFromContext(r.Context())
			if !ok {
				respondUnauthorized(w, ErrMissingToken)
				return
			}
			for _, role2 := range u.Roles {
				if role2 == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
		})
	}
}
