package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
	"github.com/xelth-com/eckbiz/internal/services/users"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
)

const testTenant = "acme"

type env struct {
	t        *testing.T
	handler  http.Handler
	issuer   *utils.TokenIssuer
	admin    *models.UserAuth
	db       *gorm.DB
	resolver *tenant.Resolver
	opens    *int32
}

func setup(t *testing.T) *env {
	t.Helper()
	db := servicetest.NewDB(t)
	opens := new(int32)
	resolver := tenant.NewResolver(tenant.OpenerFunc(func(_ context.Context, id string) (*gorm.DB, error) {
		atomic.AddInt32(opens, 1)
		if id != testTenant {
			return nil, apperr.NotFound("tenant", id)
		}
		return db, nil
	}), false)
	issuer := utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	links, err := utils.NewShareLinks("test-secret")
	require.NoError(t, err)
	links.Now = func() time.Time { return servicetest.Clock }

	admin, err := users.NewService(services.NewBase(db, nil)).Create(context.Background(), users.CreateInput{
		Email: "admin@acme.test", Password: "correct-horse", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	r := NewRouter(Deps{
		Resolver:    resolver,
		Issuer:      issuer,
		Limiter:     middleware.NewRateLimiter(600, 100),
		Links:       links,
		CORSOrigins: []string{"*"},
		Now:         func() time.Time { return servicetest.Clock },
	})
	return &env{t: t, handler: r.Handler(), issuer: issuer, admin: admin, db: db, resolver: resolver, opens: opens}
}

// tokenFor signs an access token for a user with the given role and permissions.
func (e *env) tokenFor(role string, perms ...string) string {
	e.t.Helper()
	u, err := users.NewService(services.NewBase(e.db, nil)).Create(context.Background(), users.CreateInput{
		Email:       fmt.Sprintf("%s-%d@acme.test", role, time.Now().UnixNano()),
		Password:    "correct-horse",
		Role:        role,
		Permissions: perms,
	})
	require.NoError(e.t, err)
	tok, err := e.issuer.AccessToken(u, testTenant)
	require.NoError(e.t, err)
	return tok
}

func (e *env) adminToken() string {
	e.t.Helper()
	tok, err := e.issuer.AccessToken(e.admin, testTenant)
	require.NoError(e.t, err)
	return tok
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func idOf(t *testing.T, rec *httptest.ResponseRecorder) uint {
	t.Helper()
	id, ok := decodeBody(t, rec)["id"].(float64)
	require.True(t, ok, rec.Body.String())
	return uint(id)
}

func TestHealth(t *testing.T) {
	e := setup(t)
	rec := e.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dev", body["version"])
}

func TestLoginAndRefresh(t *testing.T) {
	e := setup(t)

	rec := e.do(http.MethodPost, "/auth/login", "", map[string]string{
		"tenant": testTenant, "email": "ADMIN@acme.test", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Tokens.AccessToken)
	assert.NotEmpty(t, login.Tokens.RefreshToken)
	assert.Equal(t, e.admin.ID, login.User.ID)

	rec = e.do(http.MethodGet, "/auth/me", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@acme.test", decodeBody(t, rec)["email"])

	rec = e.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": login.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["accessToken"])

	// an access token is not a refresh token
	rec = e.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": login.Tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	e := setup(t)

	rec := e.do(http.MethodPost, "/auth/login", "", map[string]string{
		"tenant": testTenant, "email": "admin@acme.test", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])

	rec = e.do(http.MethodPost, "/auth/login", "", map[string]string{
		"tenant": "Bad Tenant!", "email": "admin@acme.test", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPost, "/auth/login", "", map[string]string{"tenant": testTenant})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields := body["details"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "required", fields["email"])
	assert.Equal(t, "required", fields["password"])
}

func TestCompanyCRUD(t *testing.T) {
	e := setup(t)
	tok := e.adminToken()

	rec := e.do(http.MethodPost, "/companies", tok, map[string]any{"code": "ACME", "name": "Acme Corp", "type": "customer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := idOf(t, rec)

	rec = e.do(http.MethodPost, "/companies", tok, map[string]any{"code": "ACME", "name": "Other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "company code already exists", decodeBody(t, rec)["error"])

	rec = e.do(http.MethodGet, "/companies?searchText=acme&type=customer", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 1, list["page"])

	rec = e.do(http.MethodPut, fmt.Sprintf("/companies/%d", id), tok, map[string]any{"industry": "Retail"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Retail", decodeBody(t, rec)["industry"])

	rec = e.do(http.MethodPut, fmt.Sprintf("/companies/%d", id), tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodDelete, fmt.Sprintf("/companies/%d", id), tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/companies/%d", id), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["code"])
}

func TestBadQueryParameter(t *testing.T) {
	e := setup(t)
	rec := e.do(http.MethodGet, "/companies?createdFrom=yesterday", e.adminToken(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "createdFrom", decodeBody(t, rec)["details"].(map[string]any)["parameter"])
}

func TestPermissions(t *testing.T) {
	e := setup(t)
	reader := e.tokenFor(models.RoleUser, "companies:read")

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/companies", reader, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/companies", reader, map[string]any{"code": "X", "name": "X"}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/products", reader, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/companies", "", nil).Code)
}

func TestTenantHeaderMustMatchToken(t *testing.T) {
	e := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	req.Header.Set("Authorization", "Bearer "+e.adminToken())
	req.Header.Set(middleware.TenantHeader, "globex")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQuoteToOrderFlow(t *testing.T) {
	e := setup(t)
	tok := e.adminToken()

	rec := e.do(http.MethodPost, "/companies", tok, map[string]any{"code": "C1", "name": "Client"})
	require.Equal(t, http.StatusCreated, rec.Code)
	companyID := idOf(t, rec)

	rec = e.do(http.MethodPost, "/quotes", tok, map[string]any{
		"companyId": companyID,
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "4", "unitPrice": "100", "taxRate": "10"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quote := decodeBody(t, rec)
	quoteID := uint(quote["id"].(float64))
	assert.Equal(t, "QUO-2025-000001", quote["number"])
	assert.Equal(t, "draft", quote["status"])
	assert.Equal(t, e.admin.ID, quote["ownerId"])

	rec = e.do(http.MethodGet, fmt.Sprintf("/quotes/%d/actions", quoteID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["actions"], "send")

	for _, action := range []string{"send", "view", "accept"} {
		rec = e.do(http.MethodPost, fmt.Sprintf("/quotes/%d/%s", quoteID, action), tok, nil)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", action, rec.Body.String())
	}

	rec = e.do(http.MethodPut, fmt.Sprintf("/quotes/%d", quoteID), tok, map[string]any{"notes": "late edit"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_state", body["code"])
	assert.Equal(t, "accepted", body["details"].(map[string]any)["currentStatus"])

	rec = e.do(http.MethodPost, fmt.Sprintf("/quotes/%d/convert", quoteID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	converted := decodeBody(t, rec)
	assert.Equal(t, "converted", converted["status"])
	orderID := uint(converted["salesOrderId"].(float64))

	rec = e.do(http.MethodGet, fmt.Sprintf("/sales-orders/%d", orderID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SO-2025-000001", decodeBody(t, rec)["number"])

	rec = e.do(http.MethodPost, fmt.Sprintf("/sales-orders/%d/payments", orderID), tok, map[string]any{"amount": "100", "method": "card"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, fmt.Sprintf("/sales-orders/%d/complete", orderID), tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/quotes/%d/pdf", quoteID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestPublicTicketIntake(t *testing.T) {
	e := setup(t)
	form := map[string]string{
		"name": "Jane", "email": "jane@example.com", "subject": "Pricing", "message": "Please call me",
	}

	post := func(tenantID string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(form))
		req := httptest.NewRequest(http.MethodPost, "/public/tickets", &buf)
		if tenantID != "" {
			req.Header.Set(middleware.TenantHeader, tenantID)
		}
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(testTenant)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody(t, rec)
	assert.Equal(t, "TCK-2025-000001", first["reference"])
	assert.Equal(t, "open", first["status"])

	rec = post(testTenant)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decodeBody(t, rec)
	assert.Equal(t, first["reference"], again["reference"])
	assert.Equal(t, true, again["duplicate"])

	assert.Equal(t, http.StatusBadRequest, post("").Code)

	rec = e.do(http.MethodGet, "/tickets?status=open", e.adminToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])
}

func TestCORSPreflight(t *testing.T) {
	e := setup(t)
	req := httptest.NewRequest(http.MethodOptions, "/companies", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSharedQuoteLink(t *testing.T) {
	e := setup(t)
	tok := e.adminToken()

	rec := e.do(http.MethodPost, "/companies", tok, map[string]any{"code": "C1", "name": "Client"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(http.MethodPost, "/quotes", tok, map[string]any{
		"companyId": idOf(t, rec),
		"items":     []map[string]any{{"description": "Audit", "quantity": "1", "unitPrice": "250"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quoteID := idOf(t, rec)

	rec = e.do(http.MethodPost, fmt.Sprintf("/quotes/%d/share", quoteID), tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "draft quotes are not shareable")

	rec = e.do(http.MethodPost, fmt.Sprintf("/quotes/%d/send", quoteID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodPost, fmt.Sprintf("/quotes/%d/share", quoteID), tok, map[string]any{"ttlHours": 48})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	share := decodeBody(t, rec)
	path := share["path"].(string)
	assert.Equal(t, "/public/quotes/"+share["token"].(string), path)

	rec = e.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = e.do(http.MethodGet, fmt.Sprintf("/quotes/%d", quoteID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewed", decodeBody(t, rec)["status"])

	rec = e.do(http.MethodGet, "/public/quotes/NOTATOKEN00", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownTenantsAreNeverOpened(t *testing.T) {
	e := setup(t)

	for i := 0; i < 5; i++ {
		rec := e.do(http.MethodPost, "/auth/login", "", map[string]string{
			"tenant": fmt.Sprintf("ghost-%d", i), "email": "admin@acme.test", "password": "correct-horse",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
		assert.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])
	}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
		"name": "Jane", "email": "jane@example.com", "subject": "Hi", "message": "Hello",
	}))
	req := httptest.NewRequest(http.MethodPost, "/public/tickets", &buf)
	req.Header.Set(middleware.TenantHeader, "ghost-intake")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, e.resolver.Tenants())

	rec = e.do(http.MethodPost, "/auth/login", "", map[string]string{
		"tenant": testTenant, "email": "admin@acme.test", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{testTenant}, e.resolver.Tenants())
	assert.EqualValues(t, 7, atomic.LoadInt32(e.opens))
}
