// Package sessionctx holds the in-memory session state shared by every
// consumer of a process: the current user, whether initialization is still
// running, and the last error from a session action.
//
// A Manager is created once at startup and handed to consumers through a
// context.Context (WithManager/FromContext). Mutations go through its actions,
// which delegate to the auth client and publish the new State to subscribers.
package sessionctx

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/memorymap/internal/auth"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/session"
)

// Fallback messages for failed actions without backend text.
const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgProfileFailed      = "Failed to update profile"
)

// State is a snapshot of the session as seen by consumers.
type State struct {
	User    session.UserProfile
	Loading bool
	Error   string
}

// Authenticated reports whether a user is present and loading has finished.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// Outcome is what an action reports back to its caller.
type Outcome struct {
	Success bool
	Error   string
	// Err is the underlying failure, nil on success.
	Err error
}

// Manager is the session state holder.
type Manager struct {
	auth   *auth.Client
	logger *log.Logger

	mu          sync.RWMutex
	state       State
	initialized bool
	subscribers map[chan State]struct{}
}

// NewManager creates a manager in the loading state. Call Init to load the
// persisted session.
func NewManager(authClient *auth.Client, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Manager{
		auth:        authClient,
		logger:      logger.With("component", "session"),
		state:       State{Loading: true},
		subscribers: make(map[chan State]struct{}),
	}
}

// Init reads the persisted session once, sets the user if one is stored and
// ends the loading state. Later calls do nothing; use Reload to re-read.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true
	m.mu.Unlock()

	m.load(ctx)
}

// Reload re-reads the persisted session, discarding in-memory state. It is the
// reload hook run after a forced logout.
func (m *Manager) Reload(ctx context.Context) {
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()

	m.logger.Debug("reloading session")
	m.load(ctx)
}

func (m *Manager) load(ctx context.Context) {
	snap := m.auth.Session(ctx)
	m.update(func(s *State) {
		*s = State{User: snap.User}
	})
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the current user or nil.
func (m *Manager) User() session.UserProfile {
	return m.State().User
}

// Login authenticates and, on success, makes the returned user current.
func (m *Manager) Login(ctx context.Context, username, password string) Outcome {
	m.setError("")

	res := m.auth.Login(ctx, username, password)
	if !res.OK() {
		return m.fail(res.Err(), res.Message(), msgLoginFailed)
	}
	m.setUser(res.Value())
	return Outcome{Success: true}
}

// Register creates an account and, on success, makes the new user current.
func (m *Manager) Register(ctx context.Context, req auth.RegisterRequest) Outcome {
	m.setError("")

	res := m.auth.Register(ctx, req)
	if !res.OK() {
		return m.fail(res.Err(), res.Message(), msgRegistrationFailed)
	}
	m.setUser(res.Value())
	return Outcome{Success: true}
}

// Logout ends the session. It always succeeds locally.
func (m *Manager) Logout(ctx context.Context) {
	m.auth.Logout(ctx)
	m.setUser(nil)
}

// UpdateProfile patches the profile and replaces the current user on success.
// A failure is reported to the caller but not stored as the session error.
func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]any) Outcome {
	res := m.auth.UpdateProfile(ctx, fields)
	if !res.OK() {
		msg := res.Message()
		if msg == "" {
			msg = msgProfileFailed
		}
		return Outcome{Error: msg, Err: res.Err()}
	}
	m.setUser(res.Value())
	return Outcome{Success: true}
}

// ClearError dismisses the current error.
func (m *Manager) ClearError() {
	m.setError("")
}

// Subscribe returns a channel that receives the state after every change.
// The channel holds only the latest state; a slow reader skips intermediate
// states. Release it with Unsubscribe.
func (m *Manager) Subscribe() <-chan State {
	ch := make(chan State, 1)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (m *Manager) Unsubscribe(ch <-chan State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subscribers {
		if sub == ch {
			delete(m.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (m *Manager) fail(err error, msg, fallback string) Outcome {
	if msg == "" {
		msg = fallback
	}
	m.setError(msg)
	return Outcome{Error: msg, Err: err}
}

func (m *Manager) setUser(user session.UserProfile) {
	m.update(func(s *State) { s.User = user })
}

func (m *Manager) setError(msg string) {
	m.update(func(s *State) { s.Error = msg })
}

func (m *Manager) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.state)
	for sub := range m.subscribers {
		publish(sub, m.state)
	}
}

// publish delivers s without blocking, replacing an unread older state.
func publish(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
