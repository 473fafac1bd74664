package detect

import (
	"context"
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

func TestChunkQueueDropsOldestUnderPressure(t *testing.T) {
	q := NewChunkQueue(2)
	defer q.Close()

	q.Enqueue(Chunk{SessionID: "s", Seq: 1})
	q.Enqueue(Chunk{SessionID: "s", Seq: 2})
	q.Enqueue(Chunk{SessionID: "s", Seq: 3})

	c, ok := q.Dequeue()
	if !ok || c.Seq != 2 {
		t.Fatalf("Dequeue() = %+v, %v; oldest should have been dropped", c, ok)
	}
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
}

func TestChunkQueueCloseDrainsThenStops(t *testing.T) {
	q := NewChunkQueue(4)
	q.Enqueue(Chunk{SessionID: "s", Seq: 1})
	q.Close()

	if _, ok := q.Dequeue(); !ok {
		t.Fatalf("pending chunk should drain after close")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatalf("drained closed queue should report done")
	}
	if q.Enqueue(Chunk{}) {
		t.Fatalf("enqueue after close should be refused")
	}
}

func TestPumpDispatchesChunkActions(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	st := s.Dispatch(action.New(action.SessionCreate, nil))
	var id string
	for sid := range st.Sessions {
		id = sid
	}

	q := NewChunkQueue(8)
	go Pump(context.Background(), q, s)

	for i := 1; i <= 3; i++ {
		q.Enqueue(Chunk{SessionID: id, Seq: i, Data: []byte{0, 1}})
	}
	q.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State().Sessions[id].AudioChunksReceived == 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("chunks received = %d, want 3", s.State().Sessions[id].AudioChunksReceived)
}
