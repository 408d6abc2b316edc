package utils

import (
	"sync"
	"time"
)

// Deduplicator remembers recently seen keys for a fixed window. Ticket
// intake uses it to answer a resubmitted form with the original reference.
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]dedupEntry
}

type dedupEntry struct {
	value string
	at    time.Time
}

// NewDeduplicator returns a deduplicator keeping keys for window.
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{window: window, now: time.Now, entries: make(map[string]dedupEntry)}
}

// Seen returns the value stored for key if it was remembered within the window.
func (d *Deduplicator) Seen(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	d.mu.RLock()
	e, ok := d.entries[key]
	d.mu.RUnlock()
	if ok && d.now().Sub(e.at) < d.window {
		return e.value, true
	}
	return "", false
}

// Remember stores value under key.
func (d *Deduplicator) Remember(key, value string) {
	if key == "" {
		return
	}
	now := d.now()
	d.mu.Lock()
	d.entries[key] = dedupEntry{value: value, at: now}

	// Cleanup old entries if map gets too big
	if len(d.entries) > 10000 {
		for k, v := range d.entries {
			if now.Sub(v.at) > 2*d.window {
				delete(d.entries, k)
			}
		}
	}
	d.mu.Unlock()
}
