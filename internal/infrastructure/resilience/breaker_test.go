package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("fetch failed")

// fakeClock lets tests move past the cooldown without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("example.com", settings)
	b.now = clock.Now
	return b, clock
}

func fail() error    { return errFetch }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []bool // true = success
		advance  time.Duration
		expected State
	}{
		{"stays closed on successes", []bool{true, true, true}, 0, StateClosed},
		{"stays closed below threshold", []bool{false, false}, 0, StateClosed},
		{"success resets the run", []bool{false, false, true, false, false}, 0, StateClosed},
		{"opens at threshold", []bool{false, false, false}, 0, StateOpen},
		{"half-open after cooldown", []bool{false, false, false}, time.Minute, StateHalfOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := newTestBreaker(Settings{Threshold: 3, Cooldown: time.Minute})
			for _, ok := range tt.calls {
				if ok {
					_ = b.Do(succeed)
				} else {
					_ = b.Do(fail)
				}
			}
			clock.Advance(tt.advance)
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Minute})

	assert.ErrorIs(t, b.Do(fail), errFetch)

	called := false
	err := b.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerProbe(t *testing.T) {
	b, clock := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Minute})
	require.Error(t, b.Do(fail))
	clock.Advance(time.Minute)

	// a failed probe reopens for a full cooldown
	assert.ErrorIs(t, b.Do(fail), errFetch)
	assert.Equal(t, StateOpen, b.State())
	clock.Advance(30 * time.Second)
	assert.ErrorIs(t, b.Do(succeed), ErrOpen)

	clock.Advance(30 * time.Second)
	assert.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Failures())
}

func TestBreakerSingleProbe(t *testing.T) {
	b, clock := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Second})
	require.Error(t, b.Do(fail))
	clock.Advance(time.Second)

	inProbe := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Do(func() error {
			close(inProbe)
			<-finish
			return nil
		})
	}()

	<-inProbe
	assert.ErrorIs(t, b.Do(succeed), ErrOpen)
	close(finish)
	assert.NoError(t, <-done)
	assert.NoError(t, b.Do(succeed))
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Minute})

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerStateChanges(t *testing.T) {
	var changes []string
	b, clock := newTestBreaker(Settings{
		Threshold: 2,
		Cooldown:  time.Second,
		OnStateChange: func(key string, from, to State) {
			changes = append(changes, key+":"+from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	_ = b.Do(fail)
	clock.Advance(time.Second)
	_ = b.Do(succeed)

	assert.Equal(t, []string{
		"example.com:closed->open",
		"example.com:open->half-open",
		"example.com:half-open->closed",
	}, changes)
}

func TestGroup(t *testing.T) {
	g := NewGroup(Settings{Threshold: 1, Cooldown: time.Minute})

	require.Error(t, g.Do("down.example", fail))
	assert.ErrorIs(t, g.Do("down.example", succeed), ErrOpen)
	assert.NoError(t, g.Do("up.example", succeed))

	assert.Same(t, g.Get("down.example"), g.Get("down.example"))
	assert.Equal(t, "up.example", g.Get("up.example").Key())
}

func TestNewDefaults(t *testing.T) {
	b := New("k", Settings{})
	assert.Equal(t, DefaultSettings().Threshold, b.settings.Threshold)
	assert.Equal(t, DefaultSettings().Cooldown, b.settings.Cooldown)
	assert.Equal(t, "unknown", State(9).String())
}
