// Package topology tracks the partition layout epoch and broadcasts
// layout changes to subscribers.
package topology

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Event describes one change to the partition layout.
type Event struct {
	Epoch   uint64   // Epoch after the change
	Added   []string // Partitions that were created
	Removed []string // Partitions that were retired
}

// Manager tracks the live partition set and notifies subscribers of changes.
// Thread-safe for concurrent access.
type Manager struct {
	mu         sync.RWMutex
	epoch      uint64
	partitions map[string]bool

	// Event broadcasting
	eventMu     sync.RWMutex
	subscribers []chan Event
	queue       chan Event
	timeout     time.Duration
	logger      *slog.Logger

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	closed  bool
	closeMu sync.Mutex
}

// ManagerOptions contains configuration for the topology manager.
type ManagerOptions struct {
	// InitialPartitions is the partition set at InitialEpoch.
	InitialPartitions []string

	// InitialEpoch is the epoch of InitialPartitions.
	InitialEpoch uint64

	// SubscriberTimeout is how long delivery waits on a full subscriber
	// before skipping it (default: 100ms).
	SubscriberTimeout time.Duration

	// QueueSize bounds events waiting for delivery once started (default: 64).
	QueueSize int

	Logger *slog.Logger
}

// NewManager creates a new topology manager.
func NewManager(ctx context.Context, opts ManagerOptions) *Manager {
	if opts.SubscriberTimeout <= 0 {
		opts.SubscriberTimeout = 100 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mgrCtx, cancel := context.WithCancel(ctx)

	m := &Manager{
		epoch:      opts.InitialEpoch,
		partitions: make(map[string]bool, len(opts.InitialPartitions)),
		queue:      make(chan Event, opts.QueueSize),
		timeout:    opts.SubscriberTimeout,
		logger:     opts.Logger,
		ctx:        mgrCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	for _, id := range opts.InitialPartitions {
		m.partitions[id] = true
	}
	return m
}

// Start moves event delivery to a background goroutine so that Publish
// does not wait on subscribers. Before Start, Publish delivers inline.
func (m *Manager) Start() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if !m.started && !m.closed {
		m.started = true
		go m.run()
	}
	return nil
}

func (m *Manager) run() {
	defer close(m.done)

	for {
		select {
		case event := <-m.queue:
			m.emitEvent(event)
		case <-m.ctx.Done():
			return
		}
	}
}

// Epoch returns the latest published epoch.
func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Partitions returns the live partition ids, sorted.
func (m *Manager) Partitions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.partitions))
	for id := range m.partitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsLive reports whether the partition is in the current layout.
func (m *Manager) IsLive(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.partitions[id]
}

// Publish records a layout change and notifies subscribers. The epoch never
// moves backwards; a change published late still updates the partition set.
func (m *Manager) Publish(epoch uint64, added, removed []string) {
	m.mu.Lock()
	for _, id := range removed {
		delete(m.partitions, id)
	}
	for _, id := range added {
		m.partitions[id] = true
	}
	if epoch > m.epoch {
		m.epoch = epoch
	}
	m.mu.Unlock()

	if len(added) == 0 && len(removed) == 0 {
		return
	}
	event := Event{
		Epoch:   epoch,
		Added:   append([]string(nil), added...),
		Removed: append([]string(nil), removed...),
	}

	m.closeMu.Lock()
	started := m.started
	m.closeMu.Unlock()

	if !started {
		m.emitEvent(event)
		return
	}
	select {
	case m.queue <- event:
	case <-m.ctx.Done():
	}
}

// Subscribe subscribes to layout change events.
// The returned channel is closed by Close. Caller should not close it.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 10) // Buffer to avoid blocking

	m.eventMu.Lock()
	defer m.eventMu.Unlock()
	if m.isClosed() {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			// Remove by swapping with last element
			m.subscribers[i] = m.subscribers[len(m.subscribers)-1]
			m.subscribers = m.subscribers[:len(m.subscribers)-1]
			break
		}
	}
}

// emitEvent sends an event to all subscribers, skipping any that stay full
// past the timeout. The read lock keeps Close from closing a channel
// mid-send.
func (m *Manager) emitEvent(event Event) {
	m.eventMu.RLock()
	defer m.eventMu.RUnlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		case <-time.After(m.timeout):
			m.logger.Warn("skipped slow topology subscriber", "epoch", event.Epoch)
		}
	}
}

func (m *Manager) isClosed() bool {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	return m.closed
}

// Close stops delivery and closes all subscriber channels. Events still
// queued are dropped.
func (m *Manager) Close() error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	alreadyStarted := m.started
	m.closeMu.Unlock()

	m.cancel()

	// Wait for background goroutine to finish (if started)
	if alreadyStarted {
		<-m.done
	}

	m.eventMu.Lock()
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
	m.eventMu.Unlock()

	return nil
}

// WaitForEpoch waits until the published epoch reaches targetEpoch.
// Returns error if context is canceled before epoch is reached.
func (m *Manager) WaitForEpoch(ctx context.Context, targetEpoch uint64) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if m.Epoch() >= targetEpoch {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Continue polling
		}
	}
}
