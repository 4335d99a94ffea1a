package memory

import (
	"context"
	"sync"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	sent []dealrequest.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(ctx context.Context, msg dealrequest.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

// Sent returns every recorded notification.
func (n *Notifier) Sent() []dealrequest.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dealrequest.Notification(nil), n.sent...)
}
