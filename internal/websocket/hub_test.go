package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
)

func startHub(t *testing.T) (*Hub, *utils.TokenIssuer, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)

	issuer := utils.NewTokenIssuer("test-secret", time.Hour, time.Hour)
	srv := httptest.NewServer(Handler(hub, issuer, []string{"*"}))
	t.Cleanup(srv.Close)
	return hub, issuer, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestHandlerRejectsMissingToken(t *testing.T) {
	_, _, srv := startHub(t)
	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotifyReachesOnlyTheTenant(t *testing.T) {
	hub, issuer, srv := startHub(t)

	tok, err := issuer.AccessToken(&models.UserAuth{
		ID: "u-1", Role: models.RoleUser, Permissions: datatypes.NewJSONType([]string{"quotes:read"}),
	}, "acme")
	require.NoError(t, err)
	conn, _, err := dial(t, srv, tok)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count("acme") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(tenant.WithID(context.Background(), "globex"), lifecycle.Event{Entity: "quote", ID: 9})
	hub.Notify(tenant.WithID(context.Background(), "acme"), lifecycle.Event{
		Type: "transition", Entity: "quote", ID: 1, Number: "QUO-2025-000001", Status: "sent", Action: "send",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev lifecycle.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, uint(1), ev.ID)
	assert.Equal(t, "sent", ev.Status)
}

func TestNotifyWithoutTenantIsDropped(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() {
		hub.Notify(context.Background(), lifecycle.Event{Entity: "quote"})
	})
}

func TestNotifyHonoursReadPermission(t *testing.T) {
	hub, issuer, srv := startHub(t)

	tok, err := issuer.AccessToken(&models.UserAuth{
		ID: "u-2", Role: models.RoleUser, Permissions: datatypes.NewJSONType([]string{"tickets:*"}),
	}, "acme")
	require.NoError(t, err)
	conn, _, err := dial(t, srv, tok)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count("acme") == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx := tenant.WithID(context.Background(), "acme")
	hub.Notify(ctx, lifecycle.Event{Entity: "expense claim", ID: 3, Status: "approved"})
	hub.Notify(ctx, lifecycle.Event{Entity: "quote", ID: 1, Status: "sent"})
	hub.Notify(ctx, lifecycle.Event{Entity: "unknown", ID: 5})
	hub.Notify(ctx, lifecycle.Event{Entity: "ticket", ID: 7, Status: "resolved"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev lifecycle.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "ticket", ev.Entity)
	assert.Equal(t, uint(7), ev.ID)
}
