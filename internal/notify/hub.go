// Package notify wakes activation waiters when an unlock code is removed.
// Waiters still poll the database; a notification only shortens the wait.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// Hub fans activation signals out to waiters in this process
type Hub struct {
	mu      sync.Mutex
	waiters map[string]map[chan struct{}]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{waiters: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives when key is published, and a
// function that releases the subscription
func (h *Hub) Subscribe(key models.ActivationKey) (<-chan struct{}, func()) {
	name := KeyString(key)
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.waiters[name] == nil {
		h.waiters[name] = make(map[chan struct{}]struct{})
	}
	h.waiters[name][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.waiters[name], ch)
			if len(h.waiters[name]) == 0 {
				delete(h.waiters, name)
			}
		})
	}
}

// Publish wakes local waiters on key
func (h *Hub) Publish(_ context.Context, key models.ActivationKey) error {
	h.broadcast(KeyString(key))
	return nil
}

// Subscribers returns the number of waiters on key
func (h *Hub) Subscribers(key models.ActivationKey) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters[KeyString(key)])
}

func (h *Hub) broadcast(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.waiters[name] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// KeyString encodes an activation key as "<block_type>:<user_id>:<salon_id>",
// with salon_id 0 for account locks
func KeyString(key models.ActivationKey) string {
	var salonID int64
	if key.SalonID != nil {
		salonID = *key.SalonID
	}
	return fmt.Sprintf("%s:%d:%d", key.BlockType, key.UserID, salonID)
}

// ParseKey decodes a string produced by KeyString
func ParseKey(s string) (models.ActivationKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return models.ActivationKey{}, fmt.Errorf("invalid activation key %q", s)
	}
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return models.ActivationKey{}, fmt.Errorf("invalid user id in activation key %q: %w", s, err)
	}
	salonID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return models.ActivationKey{}, fmt.Errorf("invalid salon id in activation key %q: %w", s, err)
	}

	key := models.ActivationKey{UserID: userID, BlockType: parts[0]}
	if salonID != 0 {
		key.SalonID = &salonID
	}
	return key, nil
}
