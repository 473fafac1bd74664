package detect

import (
	"context"
	"sync"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Chunk is one queued audio frame tagged with its session.
type Chunk struct {
	SessionID string
	Seq       int
	Data      []byte
}

// ChunkQueue is a bounded audio queue with a drop-oldest policy:
// enqueue never blocks a producer, and under pressure the stalest chunk
// is discarded first. Latency beats completeness for live speech.
type ChunkQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []Chunk
	capacity int
	dropped  int
	closed   bool
}

func NewChunkQueue(capacity int) *ChunkQueue {
	if capacity <= 0 {
		capacity = 64
	}
	q := &ChunkQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a chunk, evicting the oldest when full. Returns false
// after Close.
func (q *ChunkQueue) Enqueue(c Chunk) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if len(q.buf) >= q.capacity {
		q.buf = q.buf[1:]
		q.dropped++
	}
	q.buf = append(q.buf, c)
	q.notEmpty.Signal()
	return true
}

// Dequeue blocks until a chunk is available or the queue is closed.
func (q *ChunkQueue) Dequeue() (Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.buf) == 0 {
		return Chunk{}, false
	}
	c := q.buf[0]
	q.buf = q.buf[1:]
	return c, true
}

// Dropped reports how many chunks were evicted under pressure.
func (q *ChunkQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close wakes all blocked consumers; pending chunks still drain.
func (q *ChunkQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

// Pump drains the queue and dispatches one chunk-received action per
// chunk until the queue closes or ctx is cancelled.
func Pump(ctx context.Context, q *ChunkQueue, d store.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c, ok := q.Dequeue()
		if !ok {
			return
		}
		d.Dispatch(action.New(action.AudioChunkReceived, action.Payload{
			"session_id": c.SessionID,
			"seq":        c.Seq,
			"size":       len(c.Data),
		}))
	}
}
