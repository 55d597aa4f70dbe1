// Package moderation enforces per-user action quotas and validates user content.
package moderation

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Rate-limited actions.
const (
	ActionNPCCreate   = "npc_create"
	ActionNPCRemix    = "npc_remix"
	ActionShareCreate = "share_create"
	ActionRoomCreate  = "room_create"
	ActionChatMessage = "chat_message"
)

// Window is the sliding period every quota applies to.
const Window = time.Hour

// DefaultLimits are the per-hour quotas.
func DefaultLimits() map[string]int {
	return map[string]int{
		ActionNPCCreate:   10,
		ActionNPCRemix:    20,
		ActionShareCreate: 15,
		ActionRoomCreate:  5,
		ActionChatMessage: 100,
	}
}

// RateLimitError is returned when a user has used up an action's quota.
type RateLimitError struct {
	Action string
	Limit  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Max %d %s per hour.", e.Limit, e.Action)
}

// LimitStatus is the usage of one action within the current window.
type LimitStatus struct {
	Current   int `json:"current"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Limiter is a process-wide sliding-window tracker keyed by user and action.
// Create one at startup and Reset it on shutdown.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter. Nil limits use DefaultLimits.
func NewLimiter(limits map[string]int) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Limiter{
		limits: limits,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func key(userID, action string) string {
	return userID + ":" + action
}

// prune drops hits older than Window. Callers hold l.mu.
func (l *Limiter) prune(k string, now time.Time) []time.Time {
	kept := l.hits[k][:0]
	for _, ts := range l.hits[k] {
		if now.Sub(ts) < Window {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, k)
		return nil
	}
	l.hits[k] = kept
	return kept
}

// Allow records one use of an action and returns a *RateLimitError when the
// quota is exhausted. Unknown actions are always allowed.
func (l *Limiter) Allow(userID, action string) error {
	limit, ok := l.limits[action]
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := key(userID, action)
	if len(l.prune(k, now)) >= limit {
		return &RateLimitError{Action: action, Limit: limit}
	}
	l.hits[k] = append(l.hits[k], now)
	return nil
}

// Status reports usage for every limited action.
func (l *Limiter) Status(userID string) map[string]LimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make(map[string]LimitStatus, len(l.limits))
	for action, limit := range l.limits {
		current := len(l.prune(key(userID, action), now))
		out[action] = LimitStatus{
			Current:   current,
			Limit:     limit,
			Remaining: max(0, limit-current),
		}
	}
	return out
}

// Actions lists the limited actions in name order.
func (l *Limiter) Actions() []string {
	out := make([]string, 0, len(l.limits))
	for a := range l.limits {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Reset forgets all recorded usage.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = make(map[string][]time.Time)
}
