package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without running the call while a circuit is open
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a breaker
type Settings struct {
	// Threshold is the number of consecutive failures that opens the circuit
	Threshold int
	// Cooldown is how long an open circuit rejects calls before one probe
	// is let through
	Cooldown time.Duration
	// OnStateChange is called outside the lock whenever the state changes
	OnStateChange func(key string, from, to State)
}

// DefaultSettings returns the default breaker settings
func DefaultSettings() Settings {
	return Settings{
		Threshold: 3,
		Cooldown:  30 * time.Second,
	}
}

// Breaker stops calling a failing dependency for a while. After the
// cooldown a single probe decides whether the circuit closes again.
type Breaker struct {
	key      string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker for key
func New(key string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = DefaultSettings().Threshold
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = DefaultSettings().Cooldown
	}
	return &Breaker{
		key:      key,
		settings: settings,
		now:      time.Now,
	}
}

// Key returns the key the breaker guards
func (b *Breaker) Key() string {
	return b.key
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Failures returns the current run of consecutive failures
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Do runs fn unless the circuit is open. A non-nil error from fn, or a
// panic, counts as a failure.
func (b *Breaker) Do(fn func() error) (err error) {
	if err := b.acquire(); err != nil {
		return err
	}

	failed := true
	defer func() {
		b.release(failed)
	}()

	err = fn()
	failed = err != nil
	return err
}

// current resolves an expired open state to half-open. Callers hold mu.
func (b *Breaker) current() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	from := b.state
	to := b.current()
	switch to {
	case StateOpen:
		b.mu.Unlock()
		return ErrOpen
	case StateHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrOpen
		}
		b.probing = true
		b.state = StateHalfOpen
	}
	b.mu.Unlock()

	b.notify(from, to)
	return nil
}

func (b *Breaker) release(failed bool) {
	b.mu.Lock()
	from := b.state
	b.probing = false
	switch {
	case !failed:
		b.failures = 0
		b.state = StateClosed
	case from == StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
	default:
		b.failures++
		if b.failures >= b.settings.Threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.key, from, to)
	}
}

// Group holds one breaker per key, created on first use
type Group struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty group whose breakers share settings
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[key]
	if !ok {
		b = New(key, g.settings)
		g.breakers[key] = b
	}
	return b
}

// Do runs fn through the breaker for key
func (g *Group) Do(key string, fn func() error) error {
	return g.Get(key).Do(fn)
}
