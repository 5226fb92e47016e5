// Package notification broadcasts display and settings changes to subscribed
// presentation displays.
package notification

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
)

const (
	// DefaultQueueSize is how many notifications may wait for one subscriber.
	DefaultQueueSize = 32
	// DefaultMaxFailures is how many sends in a row may fail before a subscriber is dropped.
	DefaultMaxFailures = 3
	// DefaultStopTimeout bounds how long Unsubscribe waits for an in-flight send.
	DefaultStopTimeout = 500 * time.Millisecond
)

// ErrSubscriberBehind is reported when a subscriber's queue is full.
var ErrSubscriberBehind = errors.New("subscriber queue is full")

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*command.Notification) error
}

// subscription owns the only goroutine that writes to its stream, so sends on
// one stream never overlap and arrive in enqueue order.
type subscription struct {
	id       string
	stream   Stream
	queue    chan *command.Notification
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	queueSize     int
	maxFailures   int
	stopTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		queueSize:     DefaultQueueSize,
		maxFailures:   DefaultMaxFailures,
		stopTimeout:   DefaultStopTimeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	sub := &subscription{
		id:      uuid.New().String(),
		stream:  stream,
		queue:   make(chan *command.Notification, m.queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.deliver(sub)

	m.mu.Lock()
	m.subscriptions[sub.id] = sub
	m.mu.Unlock()

	zlog.Debug().Msgf("display subscribed: id=%s", sub.id)
	return sub.id
}

// deliver writes queued notifications to the stream until the subscription stops.
func (m *Manager) deliver(sub *subscription) {
	defer close(sub.stopped)

	failures := 0
	for {
		select {
		case <-sub.done:
			return
		case n := <-sub.queue:
			if err := sub.stream.Send(n); err != nil {
				failures++
				zlog.Warn().Msgf("notification send failed: id=%s type=%s error=%v", sub.id, n.Type, err)
				if failures >= m.maxFailures {
					zlog.Info().Msgf("display dropped after %d failed sends: id=%s", failures, sub.id)
					m.drop(sub.id)
					return
				}
				continue
			}
			failures = 0
		}
	}
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Dropped returns a channel closed when the subscription ends, whether by
// Unsubscribe, Close or because the subscriber fell behind.
func (m *Manager) Dropped(subscriptionID string) <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sub, ok := m.subscriptions[subscriptionID]; ok {
		return sub.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// drop removes a subscription and stops its writer without waiting for it.
func (m *Manager) drop(subscriptionID string) *subscription {
	m.mu.Lock()
	sub, ok := m.subscriptions[subscriptionID]
	delete(m.subscriptions, subscriptionID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	sub.stop()
	return sub
}

// Unsubscribe removes a subscription and waits briefly for an in-flight send,
// so the stream is not written after its handler returns.
func (m *Manager) Unsubscribe(subscriptionID string) {
	sub := m.drop(subscriptionID)
	if sub == nil {
		return
	}
	select {
	case <-sub.stopped:
	case <-time.After(m.stopTimeout):
		zlog.Warn().Msgf("display writer still sending after unsubscribe: id=%s", subscriptionID)
	}
	zlog.Debug().Msgf("display unsubscribed: id=%s", subscriptionID)
}

// Broadcast stamps the notification with the next sequence number and queues
// it for every subscriber. It never waits on a stream; a subscriber whose
// queue is full is dropped.
func (m *Manager) Broadcast(n *command.Notification) {
	// Stamp and enqueue under one lock so queue order matches sequence order.
	m.mu.Lock()
	n.SequenceNo = m.NextSequenceNo()
	var behind []string
	for _, sub := range m.subscriptions {
		if err := enqueue(sub, n); err != nil {
			behind = append(behind, sub.id)
		}
	}
	m.mu.Unlock()

	for _, id := range behind {
		zlog.Info().Msgf("display dropped, queue full: id=%s", id)
		m.drop(id)
	}
}

// Send queues a notification for a specific subscriber.
func (m *Manager) Send(subscriptionID string, n *command.Notification) error {
	m.mu.RLock()
	sub, ok := m.subscriptions[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return enqueue(sub, n)
}

func enqueue(sub *subscription, n *command.Notification) error {
	select {
	case <-sub.done:
		return nil
	default:
	}
	select {
	case sub.queue <- n:
		return nil
	default:
		return ErrSubscriberBehind
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := m.subscriptions
	m.subscriptions = make(map[string]*subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}
