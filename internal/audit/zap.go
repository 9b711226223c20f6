package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink writes audit events as structured log records.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink creates a sink logging through the given logger.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log.Named("audit")}
}

func (s *ZapSink) Emit(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Type)),
		zap.Time("time", event.Time),
		zap.String("subject", event.Subject),
		zap.String("client_id", event.ClientID),
	}
	if len(event.RequestedScopes) > 0 {
		fields = append(fields, zap.Strings("requested_scopes", event.RequestedScopes))
	}
	if event.Type == ConsentGranted {
		fields = append(fields,
			zap.Strings("granted_scopes", event.GrantedScopes),
			zap.Bool("remember", event.Remember),
		)
	}
	s.log.Info("audit event", fields...)
}
