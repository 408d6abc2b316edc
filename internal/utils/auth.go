package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xelth-com/eckbiz/internal/models"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the JWT payload issued to tenant users
type Claims struct {
	UserID      string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Tenant      string   `json:"tenant"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies tokens with one HMAC secret
type TokenIssuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// NewTokenIssuer returns an issuer using wall-clock time.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		Secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateTokens generates Access and Refresh tokens for a tenant user
func (i *TokenIssuer) GenerateTokens(user *models.UserAuth, tenant string) (string, string, error) {
	access, err := i.sign(Claims{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Tenant:      tenant,
		Permissions: user.PermissionList(),
		TokenType:   TokenAccess,
	}, i.AccessTTL)
	if err != nil {
		return "", "", err
	}

	refresh, err := i.sign(Claims{
		UserID:    user.ID,
		Tenant:    tenant,
		TokenType: TokenRefresh,
	}, i.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// AccessToken issues only an access token, used on refresh.
func (i *TokenIssuer) AccessToken(user *models.UserAuth, tenant string) (string, error) {
	return i.sign(Claims{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Tenant:      tenant,
		Permissions: user.PermissionList(),
		TokenType:   TokenAccess,
	}, i.AccessTTL)
}

func (i *TokenIssuer) sign(c Claims, ttl time.Duration) (string, error) {
	now := i.Now()
	c.Subject = c.UserID
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.Secret)
}

// ValidateToken parses a token and checks it is of the wanted type
func (i *TokenIssuer) ValidateToken(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.Secret, nil
	}, jwt.WithTimeFunc(i.Now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.Tenant == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
