package providers

import (
	"context"
	"errors"
	"flairhq/internal/structures"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsKey contextKey = "claims"

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims identify the caller of an authenticated request.
type Claims struct {
	Name   string   `json:"name"`
	IsMod  bool     `json:"mod"`
	Flairs []string `json:"flairs,omitempty"`
	jwt.RegisteredClaims
}

type AuthProviderInterface interface {
	Issue(name string, isMod bool, flairs []string) (string, error)
	Parse(token string) (*Claims, error)
	Authenticate(next http.Handler) http.Handler
	RequireModerator(next http.Handler) http.Handler
}

type AuthProvider struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewAuthProvider(conf *structures.Config) AuthProviderInterface {
	return &AuthProvider{
		secret: []byte(conf.Auth.JWTSecret),
		ttl:    conf.Auth.TokenTTL,
		issuer: conf.Auth.Issuer,
		now:    time.Now,
	}
}

func (ap *AuthProvider) Issue(name string, isMod bool, flairs []string) (string, error) {
	now := ap.now()
	claims := Claims{
		Name:   name,
		IsMod:  isMod,
		Flairs: flairs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			Issuer:    ap.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ap.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ap.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (ap *AuthProvider) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ap.now),
	}
	if ap.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ap.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ap.secret, nil
	}, opts...)
	if err != nil || !token.Valid || claims.Name == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate requires a valid bearer token and stores its claims in the request context.
func (ap *AuthProvider) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		claims, err := ap.Parse(tokenString)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireModerator must run after Authenticate.
func (ap *AuthProvider) RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		if !claims.IsMod {
			writeAuthError(w, http.StatusForbidden, "moderator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
