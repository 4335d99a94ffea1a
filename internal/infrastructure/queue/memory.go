package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// Published is a message recorded by Memory.
type Published struct {
	Queue   dealrequest.Queue
	Topic   string
	Key     string
	Payload json.RawMessage
}

// Memory buffers published messages until Drain is called. Delivery order
// is publish order, which satisfies every queue's ordering guarantee.
type Memory struct {
	mu          sync.Mutex
	handlers    map[string]dealrequest.Handler
	pending     []Published
	history     []Published
	maxAttempts int
}

func NewMemory() *Memory {
	return &Memory{
		handlers:    make(map[string]dealrequest.Handler),
		maxAttempts: 3,
	}
}

func (m *Memory) Subscribe(topic string, handler dealrequest.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
}

func (m *Memory) Publish(ctx context.Context, queue dealrequest.Queue, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}
	msg := Published{Queue: queue, Topic: topic, Key: key, Payload: data}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, msg)
	m.history = append(m.history, msg)
	return nil
}

// Pending returns the number of undelivered messages.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// History returns every message published so far.
func (m *Memory) History() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.history...)
}

// Drain delivers pending messages, including ones published while
// draining, until none remain. Failed deliveries are retried in place; the
// joined error of dropped messages is returned.
func (m *Memory) Drain(ctx context.Context) error {
	var errs []error
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return errors.Join(errs...)
		}
		msg := m.pending[0]
		m.pending = m.pending[1:]
		handler := m.handlers[msg.Topic]
		m.mu.Unlock()

		if handler == nil {
			continue
		}
		var err error
		for attempt := 0; attempt < m.maxAttempts; attempt++ {
			err = safeCall(ctx, handler, msg.Payload)
			if err == nil || isPermanent(err) {
				break
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", msg.Topic, msg.Key, err))
		}
	}
}
