package archive

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Subscriber writes every committed action to the archive. Save errors
// are logged and dropped; archival never blocks or fails a dispatch.
type Subscriber struct {
	store  Store
	logger *zap.Logger
}

func NewSubscriber(st Store, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{store: st, logger: logger}
}

func (s *Subscriber) Name() string { return "archive" }

func (s *Subscriber) Matches(action.Type) bool { return true }

func (s *Subscriber) Handle(ctx context.Context, act action.Action, _ store.State) {
	payload, err := json.Marshal(act.Payload)
	if err != nil {
		s.logger.Error("marshal action payload", zap.Error(err))
		return
	}
	rec := Record{
		Seq:       act.Seq,
		Type:      string(act.Type),
		SessionID: act.Payload.SessionID(),
		Payload:   payload,
	}
	if err := s.store.SaveAction(ctx, rec); err != nil {
		s.logger.Error("archive action",
			zap.String("action", rec.Type),
			zap.Uint64("seq", rec.Seq),
			zap.Error(err),
		)
	}
}
