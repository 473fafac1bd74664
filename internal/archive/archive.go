// Package archive persists committed actions for replay and audit. It
// is fed by an effect subscriber, never by the reducers: a storage
// failure is logged and isolated, it cannot corrupt or block dispatch.
package archive

import (
	"context"
	"time"
)

// Record is one committed action as stored.
type Record struct {
	ID        string
	Seq       uint64
	Type      string
	SessionID string
	Payload   []byte
	CreatedAt time.Time
}

// Store is the archive surface. Both implementations are safe for
// concurrent use.
type Store interface {
	SaveAction(ctx context.Context, rec Record) error
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]Record, error)
	Close()
}
