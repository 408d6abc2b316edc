package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/users"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Tenant   string `json:"tenant" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the issued access and refresh token
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Tokens TokenPair        `json:"tokens"`
	User   *models.UserAuth `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// tenantUsers returns the user service of a tenant named outside the token.
func (r *Router) tenantUsers(ctx context.Context, id string) (*users.Service, context.Context, error) {
	db, err := r.deps.Resolver.DB(ctx, id)
	if err != nil {
		return nil, ctx, err
	}
	ctx = tenant.WithID(ctx, id)
	b := services.NewBase(db, nil)
	if r.deps.Now != nil {
		b.Now = r.deps.Now
	}
	return users.NewService(b), ctx, nil
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := r.decode(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}

	svc, ctx, err := r.tenantUsers(req.Context(), body.Tenant)
	if apperr.IsKind(err, apperr.KindNotFound) {
		// unknown tenants look like bad credentials
		err = apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		respondErr(w, req, err)
		return
	}
	user, err := svc.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		logger.FromContext(ctx).Info("login failed", zap.String("tenant", body.Tenant))
		respondErr(w, req, err)
		return
	}

	access, refresh, err := r.deps.Issuer.GenerateTokens(user, body.Tenant)
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to generate tokens", err))
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{
		Tokens: TokenPair{AccessToken: access, RefreshToken: refresh},
		User:   user,
	})
}

// refresh exchanges a refresh token for a new access token
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body refreshRequest
	if err := r.decode(w, req, &body); err != nil {
		respondErr(w, req, err)
		return
	}
	claims, err := r.deps.Issuer.ValidateToken(body.RefreshToken, utils.TokenRefresh)
	if err != nil {
		respondErr(w, req, apperr.Unauthorized("invalid or expired refresh token"))
		return
	}

	svc, ctx, err := r.tenantUsers(req.Context(), claims.Tenant)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	user, err := svc.Active(ctx, claims.UserID)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	access, err := r.deps.Issuer.AccessToken(user, claims.Tenant)
	if err != nil {
		respondErr(w, req, apperr.Internal("failed to generate token", err))
		return
	}
	respondJSON(w, http.StatusOK, TokenPair{AccessToken: access})
}

// me returns the authenticated user
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	claims := middleware.ClaimsFrom(req.Context())
	user, err := users.NewService(r.base(req)).Active(req.Context(), claims.UserID)
	if err != nil {
		respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
