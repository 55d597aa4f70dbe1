package moderation

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestLimiter_Allow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(nil).WithClock(clock.Now)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow("alice", ActionRoomCreate), "attempt %d", i+1)
	}

	err := l.Allow("alice", ActionRoomCreate)
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "Rate limit exceeded. Max 5 room_create per hour.", err.Error())

	assert.NoError(t, l.Allow("bob", ActionRoomCreate), "quotas are per user")

	clock.Advance(Window)
	assert.NoError(t, l.Allow("alice", ActionRoomCreate), "old hits expire after the window")
}

func TestLimiter_UnknownActionAllowed(t *testing.T) {
	l := NewLimiter(map[string]int{"x": 0})
	assert.Error(t, l.Allow("alice", "x"))
	assert.NoError(t, l.Allow("alice", "dance"))
}

func TestLimiter_Status(t *testing.T) {
	l := NewLimiter(nil)
	require.NoError(t, l.Allow("alice", ActionNPCCreate))
	require.NoError(t, l.Allow("alice", ActionNPCCreate))

	status := l.Status("alice")
	assert.Len(t, status, 5)
	assert.Equal(t, LimitStatus{Current: 2, Limit: 10, Remaining: 8}, status[ActionNPCCreate])
	assert.Equal(t, LimitStatus{Current: 0, Limit: 100, Remaining: 100}, status[ActionChatMessage])

	l.Reset()
	assert.Equal(t, 0, l.Status("alice")[ActionNPCCreate].Current)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(map[string]int{"burst": 10})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("alice", "burst") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestLimiter_Actions(t *testing.T) {
	assert.Equal(t,
		[]string{ActionChatMessage, ActionNPCCreate, ActionNPCRemix, ActionRoomCreate, ActionShareCreate},
		NewLimiter(nil).Actions())
}

func TestValidateNPC(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name      string
		npcName   string
		trait     string
		backstory string
		wantErr   string
	}{
		{"all blank", "", "", "", ""},
		{"valid", "Lyra", "brave", "She sails.", ""},
		{"blocked name", "Scam Lord", "", "", "Name validation failed: Content contains inappropriate word: scam"},
		{"long name", strings.Repeat("n", 101), "", "", "Name too long (max 100 characters)"},
		{"long trait", "", strings.Repeat("t", 51), "", "Trait too long (max 50 characters)"},
		{"long backstory", "", "", strings.Repeat("b", 1001), "Backstory too long (max 1000 characters)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateNPC(tt.npcName, tt.trait, tt.backstory)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantErr, ve.Reason)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	v := NewValidator(nil)

	assert.NoError(t, v.ValidateMessage("hello there"))
	assert.EqualError(t, v.ValidateMessage("   "), "Message cannot be empty")
	assert.EqualError(t, v.ValidateMessage(strings.Repeat("x", 501)), "Message too long (max 500 characters)")
	assert.EqualError(t, v.ValidateMessage("free hack inside"), "Content contains inappropriate word: hack")
}

func TestNewReport(t *testing.T) {
	r, err := NewReport("npc", "npc-1", " rude ")
	require.NoError(t, err)
	assert.Equal(t, "npc", r.ContentType)
	assert.Equal(t, "rude", r.Reason)
	assert.False(t, r.Timestamp.IsZero())

	_, err = NewReport("", "npc-1", "x")
	assert.Error(t, err)
}
