package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// ClaimsFrom returns the authenticated user's claims, or nil.
func ClaimsFrom(ctx context.Context) *utils.Claims {
	c, _ := ctx.Value(UserContextKey).(*utils.Claims)
	return c
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, c *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, c)
}

// BearerToken extracts the token from an "Authorization: Bearer x" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth verifies the bearer access token and stores its claims in the context
func Auth(issuer *utils.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				WriteError(w, r, apperr.Unauthorized("authorization header required"))
				return
			}
			token, ok := BearerToken(r)
			if !ok {
				WriteError(w, r, apperr.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := issuer.ValidateToken(token, utils.TokenAccess)
			if err != nil {
				logger.FromContext(r.Context()).Debug("token rejected", zap.Error(err))
				WriteError(w, r, apperr.Unauthorized("invalid or expired token"))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.With(ctx, zap.String("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
