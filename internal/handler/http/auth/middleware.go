// Package auth guards the API with HS256 bearer tokens.
//
// Authentication is optional: the server only installs the middleware when a
// JWT secret is configured. Tokens must carry "sub" and "exp" claims.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wpdesk/internal/handler/http/respond"
)

type ctxKey string

const ctxUser ctxKey = "user"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token expired")
)

// Authenticator validates bearer tokens signed with a shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// New returns an Authenticator after checking the secret's strength.
func New(secret string) (*Authenticator, error) {
	if err := ValidateSecret(secret); err != nil {
		return nil, err
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// Middleware rejects requests to protected endpoints that lack a valid token
// and stores the token subject in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || IsPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		user, err := a.validate(r.Header.Get("Authorization"))
		authzCheckDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			switch {
			case errors.Is(err, errMissingToken):
				recordAuthRequest("missing")
			case errors.Is(err, errExpiredToken):
				recordAuthRequest("expired")
			default:
				recordAuthRequest("invalid")
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="wpdesk"`)
			respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{
				Error:   "UNAUTHORIZED",
				Message: err.Error(),
			})
			return
		}
		recordAuthRequest("success")
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
	})
}

func (a *Authenticator) validate(authz string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", errMissingToken
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(strings.TrimPrefix(authz, prefix), claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errExpiredToken
		}
		return "", errInvalidToken
	}
	if !tok.Valid {
		return "", errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

// UserFromContext returns the token subject stored by Middleware.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxUser).(string)
	return u, ok
}
