package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

// ErrStopped is returned when publishing to a stopped pool.
var ErrStopped = errors.New("dispatcher stopped")

// Options configures a Pool.
type Options struct {
	// Shards is the number of ordered lanes per keyed queue.
	Shards int
	// Workers is the number of goroutines on the low-priority queue.
	Workers     int
	Buffer      int
	MaxAttempts int
	MaxBackoff  time.Duration
}

func (o *Options) setDefaults() {
	if o.Shards <= 0 {
		o.Shards = 8
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 10 * time.Second
	}
}

type message struct {
	queue   dealrequest.Queue
	topic   string
	key     string
	payload json.RawMessage
	attempt int
}

// Pool is an in-process deferred dispatcher. Keyed queues (primary, fifo,
// request affinity) hash each key onto one lane so messages for a key are
// handled in publish order; redelivery happens in place on the lane. The
// low-priority queue is a shared unordered worker pool.
type Pool struct {
	opts     Options
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	mu       sync.RWMutex
	handlers map[string]dealrequest.Handler

	lanes map[dealrequest.Queue][]*lane
	low   *lane
	// pending counts accepted messages not yet handled or dropped.
	pending atomic.Int64

	wg      sync.WaitGroup
	stopped chan struct{}
	once    sync.Once
}

func NewPool(opts Options, logger zerolog.Logger) *Pool {
	opts.setDefaults()
	p := &Pool{
		opts:     opts,
		logger:   logger.With().Str("service", "dispatcher").Logger(),
		metrics:  metrics.Get(),
		handlers: make(map[string]dealrequest.Handler),
		lanes:    make(map[dealrequest.Queue][]*lane),
		stopped:  make(chan struct{}),
	}
	p.low = p.newLane(dealrequest.QueueLowPriority)
	for _, q := range []dealrequest.Queue{dealrequest.QueuePrimary, dealrequest.QueueFifo, dealrequest.QueueRequestAffinity} {
		lanes := make([]*lane, opts.Shards)
		for i := range lanes {
			lanes[i] = p.newLane(q)
		}
		p.lanes[q] = lanes
	}
	return p
}

func (p *Pool) Subscribe(topic string, handler dealrequest.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = handler
}

func (p *Pool) Publish(ctx context.Context, queue dealrequest.Queue, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}
	msg := message{queue: queue, topic: topic, key: key, payload: data}
	l, err := p.route(queue, key)
	if err != nil {
		return err
	}
	select {
	case <-p.stopped:
		return ErrStopped
	default:
	}
	p.pending.Add(1)
	l.push(msg)
	return nil
}

// lane is one buffered channel plus an ordered backlog used while the
// channel is full. Publish never blocks, so a handler can publish onto the
// lane it runs on; once a backlog exists, later messages queue behind it.
type lane struct {
	pool     *Pool
	queue    dealrequest.Queue
	ch       chan message
	mu       sync.Mutex
	backlog  []message
	flushing bool
}

func (p *Pool) newLane(queue dealrequest.Queue) *lane {
	return &lane{pool: p, queue: queue, ch: make(chan message, p.opts.Buffer)}
}

func (l *lane) push(msg message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.backlog) == 0 {
		select {
		case l.ch <- msg:
			return
		default:
		}
	}
	l.pool.metrics.Deliveries.WithLabelValues(string(l.queue), msg.topic, "backlog").Inc()
	l.backlog = append(l.backlog, msg)
	if !l.flushing {
		l.flushing = true
		go l.flush()
	}
}

// flush moves the backlog onto the channel in order, waiting for room.
func (l *lane) flush() {
	for {
		l.mu.Lock()
		if len(l.backlog) == 0 {
			l.flushing = false
			l.mu.Unlock()
			return
		}
		msg := l.backlog[0]
		l.mu.Unlock()

		select {
		case l.ch <- msg:
			l.mu.Lock()
			l.backlog = l.backlog[1:]
			l.mu.Unlock()
		case <-l.pool.stopped:
			l.mu.Lock()
			l.pool.pending.Add(-int64(len(l.backlog)))
			l.backlog = nil
			l.flushing = false
			l.mu.Unlock()
			return
		}
	}
}

func (p *Pool) route(queue dealrequest.Queue, key string) (*lane, error) {
	if queue == dealrequest.QueueLowPriority {
		return p.low, nil
	}
	lanes, ok := p.lanes[queue]
	if !ok {
		return nil, fmt.Errorf("unknown queue: %s", queue)
	}
	return lanes[laneFor(key, len(lanes))], nil
}

func laneFor(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Start launches the lane and worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	for _, lanes := range p.lanes {
		for _, l := range lanes {
			p.wg.Add(1)
			go p.runLane(ctx, l.ch)
		}
	}
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.runLow(ctx)
	}
	p.logger.Info().Int("shards", p.opts.Shards).Int("workers", p.opts.Workers).Msg("dispatcher started")
}

// WaitIdle blocks until every accepted message has been handled or dropped,
// including the ones published by handlers meanwhile.
func (p *Pool) WaitIdle(ctx context.Context) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for p.pending.Load() > 0 {
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop stops accepting messages and waits for in-flight handlers.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.stopped)
	})
	p.wg.Wait()
}

func (p *Pool) runLane(ctx context.Context, ch chan message) {
	defer p.wg.Done()
	for {
		select {
		case msg := <-ch:
			for {
				retry := p.deliver(ctx, &msg)
				if !retry {
					p.pending.Add(-1)
					break
				}
				if !p.sleep(ctx, backoff(msg.attempt, p.opts.MaxBackoff)) {
					return
				}
			}
		case <-p.stopped:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) runLow(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.low.ch:
			if p.deliver(ctx, &msg) {
				go p.requeueLow(ctx, msg)
				continue
			}
			p.pending.Add(-1)
		case <-p.stopped:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) requeueLow(ctx context.Context, msg message) {
	if !p.sleep(ctx, backoff(msg.attempt, p.opts.MaxBackoff)) {
		return
	}
	select {
	case p.low.ch <- msg:
	case <-p.stopped:
	case <-ctx.Done():
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// deliver runs the handler once and reports whether the message should be redelivered.
func (p *Pool) deliver(ctx context.Context, msg *message) bool {
	p.mu.RLock()
	handler := p.handlers[msg.topic]
	p.mu.RUnlock()
	queue := string(msg.queue)
	if handler == nil {
		p.metrics.Deliveries.WithLabelValues(queue, msg.topic, "no_handler").Inc()
		p.logger.Warn().Str("topic", msg.topic).Str("key", msg.key).Msg("no handler for topic; dropping message")
		return false
	}

	msg.attempt++
	start := time.Now()
	err := safeCall(ctx, handler, msg.payload)
	p.metrics.DeliveryLatency.WithLabelValues(queue, msg.topic).Observe(time.Since(start).Seconds())
	if err == nil {
		p.metrics.Deliveries.WithLabelValues(queue, msg.topic, "ok").Inc()
		return false
	}
	if isPermanent(err) {
		p.metrics.Deliveries.WithLabelValues(queue, msg.topic, "fatal").Inc()
		p.logger.Error().Err(err).Str("queue", queue).Str("topic", msg.topic).Str("key", msg.key).
			Msg("handler failed permanently; message dropped")
		return false
	}
	if msg.attempt >= p.opts.MaxAttempts {
		p.metrics.Deliveries.WithLabelValues(queue, msg.topic, "dead").Inc()
		p.logger.Error().Err(err).Str("queue", queue).Str("topic", msg.topic).Str("key", msg.key).
			Int("attempts", msg.attempt).Msg("message exhausted delivery attempts")
		return false
	}
	p.metrics.Deliveries.WithLabelValues(queue, msg.topic, "retry").Inc()
	p.logger.Warn().Err(err).Str("queue", queue).Str("topic", msg.topic).Str("key", msg.key).
		Int("attempt", msg.attempt).Msg("handler failed; redelivering")
	return true
}

func safeCall(ctx context.Context, handler dealrequest.Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler panic: %v", dealrequest.ErrPermanent, r)
		}
	}()
	return handler(ctx, payload)
}

func isPermanent(err error) bool {
	return errors.Is(err, dealrequest.ErrPermanent) || errors.Is(err, dealrequest.ErrUnhandledStatus)
}

func backoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	// 100ms * 2^(attempts-1)
	d := time.Duration(math.Pow(2, float64(attempts-1)) * float64(100*time.Millisecond))
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
