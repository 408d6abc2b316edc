package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/tenant"
)

// eventResources maps an event entity onto the permission resource a
// subscriber needs read access to. Entities missing here reach nobody.
var eventResources = map[string]string{
	"employee":           "employees",
	"quote":              "quotes",
	"sales order":        "sales-orders",
	"expense claim":      "expenses",
	"content":            "content",
	"shift":              "shifts",
	"onboarding plan":    "onboarding",
	"performance review": "performance",
	"ticket":             "tickets",
}

// Hub maintains the set of active clients per tenant and fans out events
type Hub struct {
	// tenant id -> connected clients
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run services registrations until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.tenant]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.tenant] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("tenant", c.tenant), zap.String("user_id", c.userID))

		case c := <-h.unregister:
			h.remove(c)

		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.tenant]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.tenant)
	}
	close(c.send)
	h.log.Debug("client disconnected", zap.String("tenant", c.tenant), zap.String("user_id", c.userID))
}

// Count returns the number of clients connected for tenantID.
func (h *Hub) Count(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantID])
}

// Notify publishes ev to the clients of the tenant bound to ctx that may
// read the entity. It never blocks: a client whose buffer is full is
// disconnected.
func (h *Hub) Notify(ctx context.Context, ev lifecycle.Event) {
	id := tenant.IDFrom(ctx)
	if id == "" {
		logger.FromContext(ctx).Warn("event without tenant dropped", zap.String("entity", ev.Entity))
		return
	}
	resource, ok := eventResources[ev.Entity]
	if !ok {
		return
	}
	required := access.New(resource, access.ActionRead)
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.FromContext(ctx).Error("marshal event", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[id] {
		if !access.Allowed(c.subject, required) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", zap.String("tenant", c.tenant), zap.String("user_id", c.userID))
		h.remove(c)
	}
}

var _ lifecycle.Notifier = (*Hub)(nil)
