package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// Ledger implements dealrequest.UsageLedger in process memory.
type Ledger struct {
	mu      sync.Mutex
	now     func() time.Time
	charged map[dealrequest.Key]time.Time
}

func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ledger{now: now, charged: make(map[dealrequest.Key]time.Time)}
}

func (l *Ledger) ChargeOnce(ctx context.Context, key dealrequest.Key) (dealrequest.ChargeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on, ok := l.charged[key]; ok {
		return dealrequest.ChargeResult{ChargedOn: on}, nil
	}
	on := l.now()
	l.charged[key] = on
	return dealrequest.ChargeResult{Charged: true, ChargedOn: on}, nil
}

// Charges returns the number of charged requests.
func (l *Ledger) Charges() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.charged)
}

// Media resolves media references to themselves.
type Media struct{}

func (Media) Resolve(ctx context.Context, key dealrequest.Key, refs []string) ([]string, error) {
	return append([]string(nil), refs...), nil
}
