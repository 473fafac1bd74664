package store

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
)

// Subscriber consumes committed (action, state) pairs. Matches filters
// by action type before the pair is queued; Handle runs on the
// subscriber's own goroutine, may block, and may dispatch follow-up
// actions. A panic in Handle is caught and isolated.
type Subscriber interface {
	Name() string
	Matches(t action.Type) bool
	Handle(ctx context.Context, act action.Action, st State)
}

// Dispatcher is the narrow interface effects use to emit follow-up
// actions without holding the whole store.
type Dispatcher interface {
	Dispatch(act action.Action) State
}

// Store is the single serialization point for state mutation. Dispatch
// reduces under an exclusive lock, installs the new state atomically,
// and hands the committed pair to every matching subscriber without
// blocking the next dispatch. Reads never block writes.
type Store struct {
	logger *zap.Logger

	mu    sync.Mutex // serializes reduce+install+enqueue
	seq   uint64
	state atomic.Pointer[State]

	subsMu sync.Mutex
	subs   []*subscription
	closed bool

	wg sync.WaitGroup
}

type committed struct {
	act action.Action
	st  State
}

// subscription is one subscriber's in-order delivery queue. The queue is
// unbounded so the dispatcher never blocks on a slow consumer; the
// worker drains it in dispatch order.
type subscription struct {
	sub    Subscriber
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []committed
	closed bool
}

// New returns an empty store. A nil logger is replaced with a no-op.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	initial := NewState()
	s.state.Store(&initial)
	return s
}

// State returns the current committed state. The returned value
// corresponds to some prefix of the dispatch order and must be treated
// as read-only.
func (s *Store) State() State {
	return *s.state.Load()
}

// Dispatch applies one action. Reduction is pure and total: a
// well-formed action never fails, an unrecognized type reduces to
// identity. Returns the newly committed state.
func (s *Store) Dispatch(act action.Action) State {
	s.mu.Lock()
	s.seq++
	act.Seq = s.seq

	cur := s.state.Load()
	next := reduceSessions(*cur, act)
	next.Stats = reduceStats(next.Stats, act)
	s.state.Store(&next)

	// Enqueue inside the critical section so every subscriber observes
	// the identical total order. Appends never block.
	s.subsMu.Lock()
	subs := s.subs
	s.subsMu.Unlock()
	for _, sc := range subs {
		if sc.sub.Matches(act.Type) {
			sc.push(committed{act: act, st: next})
		}
	}
	s.mu.Unlock()

	return next
}

// Subscribe registers an effect subscriber and starts its delivery
// worker. Subscribers added after dispatches begin see only subsequent
// actions.
func (s *Store) Subscribe(ctx context.Context, sub Subscriber) {
	sc := &subscription{sub: sub}
	sc.cond = sync.NewCond(&sc.mu)

	s.subsMu.Lock()
	if s.closed {
		s.subsMu.Unlock()
		return
	}
	s.subs = append(s.subs, sc)
	s.subsMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(ctx, sc)
	}()
}

// Close stops delivery workers after their queues drain.
func (s *Store) Close() {
	s.subsMu.Lock()
	s.closed = true
	subs := s.subs
	s.subsMu.Unlock()

	for _, sc := range subs {
		sc.mu.Lock()
		sc.closed = true
		sc.cond.Broadcast()
		sc.mu.Unlock()
	}
	s.wg.Wait()
}

func (sc *subscription) push(c committed) {
	sc.mu.Lock()
	sc.queue = append(sc.queue, c)
	sc.cond.Signal()
	sc.mu.Unlock()
}

func (s *Store) deliver(ctx context.Context, sc *subscription) {
	for {
		sc.mu.Lock()
		for len(sc.queue) == 0 && !sc.closed {
			sc.cond.Wait()
		}
		if len(sc.queue) == 0 && sc.closed {
			sc.mu.Unlock()
			return
		}
		c := sc.queue[0]
		sc.queue = sc.queue[1:]
		sc.mu.Unlock()

		s.handleSafely(ctx, sc.sub, c)
	}
}

// handleSafely isolates a subscriber failure: it is logged and dropped,
// never propagated to the dispatcher or to other subscribers.
func (s *Store) handleSafely(ctx context.Context, sub Subscriber, c committed) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("effect subscriber panicked",
				zap.String("subscriber", sub.Name()),
				zap.String("action", string(c.act.Type)),
				zap.Uint64("seq", c.act.Seq),
				zap.Any("panic", r),
			)
		}
	}()
	sub.Handle(ctx, c.act, c.st)
}
