package archive

import (
	"context"
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewInMemoryStore(100)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		err := s.SaveAction(ctx, Record{Seq: uint64(i), Type: "t", SessionID: "s1"})
		if err != nil {
			t.Fatalf("SaveAction() error = %v", err)
		}
	}
	if err := s.SaveAction(ctx, Record{Seq: 4, Type: "t", SessionID: "s2"}); err != nil {
		t.Fatalf("SaveAction() error = %v", err)
	}

	recs, err := s.RecentBySession(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentBySession() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Seq != 3 {
		t.Fatalf("newest first: got seq %d", recs[0].Seq)
	}
	for _, rec := range recs {
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Fatalf("record not stamped: %+v", rec)
		}
	}
}

func TestInMemoryStoreBounded(t *testing.T) {
	s := NewInMemoryStore(2)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if err := s.SaveAction(ctx, Record{Seq: uint64(i), SessionID: "s"}); err != nil {
			t.Fatalf("SaveAction() error = %v", err)
		}
	}
	recs, _ := s.RecentBySession(ctx, "s", 10)
	if len(recs) != 2 || recs[0].Seq != 5 {
		t.Fatalf("bound not enforced: %+v", recs)
	}
}

func TestSubscriberArchivesCommittedActions(t *testing.T) {
	bus := store.New(nil)
	defer bus.Close()

	s := NewInMemoryStore(100)
	bus.Subscribe(context.Background(), NewSubscriber(s, nil))

	bus.Dispatch(action.ForSession(action.WakeActivated, "s1"))
	bus.Dispatch(action.ForSession(action.WakeDeactivated, "s1"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		recs, _ := s.RecentBySession(context.Background(), "s1", 10)
		if len(recs) == 2 {
			if recs[0].Type != string(action.WakeDeactivated) {
				t.Fatalf("newest record = %q", recs[0].Type)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("actions were not archived")
}
