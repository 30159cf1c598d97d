package observability

import (
	"context"

	"go.uber.org/zap"

	"printora-backend/domain/events"
)

// BindAuditLog subscribes a structured audit trail for abuse-related events.
// Rejections log at Info; blocks and suspicion escalations at Warn so they
// surface in the default production log filter.
func BindAuditLog(bus *events.Bus, logger *zap.Logger) error {
	audit := logger.Named("audit")

	bindings := map[string]events.Handler{
		events.EventTypeRateLimitExceeded: func(_ context.Context, event events.DomainEvent) {
			e, ok := event.(events.RateLimitExceeded)
			if !ok {
				return
			}
			audit.Info("Rate limit exceeded",
				zap.String("key", e.Key),
				zap.String("preset", e.Preset),
				zap.String("severity", e.Severity),
				zap.Float64("overage_ratio", e.OverageRatio),
				zap.String("reference_id", e.ReferenceID))
		},
		events.EventTypeClientBlocked: func(_ context.Context, event events.DomainEvent) {
			e, ok := event.(events.ClientBlocked)
			if !ok {
				return
			}
			audit.Warn("Client blocked",
				zap.String("key", e.Key),
				zap.String("preset", e.Preset),
				zap.String("severity", e.Severity),
				zap.String("threat_level", e.ThreatLevel),
				zap.Int("duration_seconds", e.DurationSeconds),
				zap.String("reference_id", e.ReferenceID))
		},
		events.EventTypeClientUnblocked: func(_ context.Context, event events.DomainEvent) {
			e, ok := event.(events.ClientUnblocked)
			if !ok {
				return
			}
			audit.Info("Client unblocked",
				zap.String("key", e.Key),
				zap.String("reason", e.Reason))
		},
		events.EventTypeSuspicionRaised: func(_ context.Context, event events.DomainEvent) {
			e, ok := event.(events.SuspicionRaised)
			if !ok {
				return
			}
			audit.Warn("Suspicion raised",
				zap.String("key", e.Key),
				zap.String("threat_level", e.ThreatLevel),
				zap.Int("violation_count", e.ViolationCount))
		},
	}

	for eventType, handler := range bindings {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}
