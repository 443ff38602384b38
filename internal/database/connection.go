package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"familybudget/internal/logger"
)

// State is the lifecycle state of a store connection
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Connector is a store handle the Manager can bring up, probe and release.
// Setup must be idempotent: it runs again after every lost connection.
type Connector interface {
	Setup(ctx context.Context) error
	PingContext(ctx context.Context) error
	Close() error
}

// ManagerOptions tunes retry and health checking
type ManagerOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	HealthInterval  time.Duration
	PingTimeout     time.Duration

	// OnStateChange is called synchronously after every transition
	OnStateChange func(from, to State)
}

func (o *ManagerOptions) applyDefaults() {
	if o.MaxRetries < 1 {
		o.MaxRetries = 10
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 200 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 5 * time.Second
	}
	if o.HealthInterval <= 0 {
		o.HealthInterval = 15 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 3 * time.Second
	}
}

// Manager owns the store connection for the life of the process
type Manager struct {
	name  string
	conn  Connector
	log   *logger.Logger
	opts  ManagerOptions
	state atomic.Int32
	mu    sync.Mutex // serializes transitions
}

// NewManager wraps conn. Nothing is contacted until Connect.
func NewManager(name string, conn Connector, log *logger.Logger, opts ManagerOptions) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	opts.applyDefaults()
	return &Manager{
		name: name,
		conn: conn,
		log:  log.With("store", name),
		opts: opts,
	}
}

// State returns the current connection state
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Ready reports whether the store is usable
func (m *Manager) Ready() bool {
	return m.State() == StateConnected
}

// Name returns the backend name the manager was created with
func (m *Manager) Name() string {
	return m.name
}

func (m *Manager) setState(to State) {
	from := State(m.state.Swap(int32(to)))
	if from == to {
		return
	}
	m.log.Debug("store state changed", "from", from.String(), "to", to.String())
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(from, to)
	}
}

// Connect blocks until the store is set up or the bounded retries run out
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setState(StateConnecting)
	if err := m.establish(ctx); err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("failed to connect to %s store: %w", m.name, err)
	}
	m.setState(StateConnected)
	m.log.Info("store connected")
	return nil
}

// Watch pings the store every HealthInterval and reconnects when the ping
// fails. It returns when ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Manager) check(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateConnected {
		pingCtx, cancel := context.WithTimeout(ctx, m.opts.PingTimeout)
		err := m.conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return
		}
		m.log.Warn("store health check failed", "error", err)
	}

	m.setState(StateReconnecting)
	if err := m.establish(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.setState(StateDisconnected)
		m.log.Error("store reconnect failed", "error", err, "attempts", m.opts.MaxRetries)
		return
	}
	m.setState(StateConnected)
	m.log.Info("store reconnected")
}

func (m *Manager) establish(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.opts.InitialInterval
	b.MaxInterval = m.opts.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, m.conn.Setup(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(m.opts.MaxRetries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Warn("store connection attempt failed", "attempt", attempt, "retry_in", next.String(), "error", err)
		}),
	)
	return err
}

// Close releases the store handle
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setState(StateDisconnected)
	return m.conn.Close()
}
