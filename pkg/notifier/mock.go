package notifier

import (
	"context"
	"sync"
)

// Mock collects notifications in memory. Err, when set, is returned from
// every call after the notification is recorded.
type Mock struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (m *Mock) Notify(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return m.Err
}

func (m *Mock) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
