// Package events handles event emission for provider lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/kafka"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// Emitter publishes merge lifecycle events. Emission is best-effort: a
// publish failure is logged and never fails the merge that triggered it.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// ProviderMerged emits a provider.merged event after a successful merge.
func (e *Emitter) ProviderMerged(ctx context.Context, result models.MergeResult, matchType models.MatchType, actor string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ProviderMerged")
	defer span.End()

	event := &kafka.ProviderEvent{
		EventType:  models.AuditEventProviderMerged,
		ProviderID: result.SurvivorID.String(),
		RemovedID:  result.RemovedID.String(),
		MatchType:  string(matchType),
		Actor:      actor,
	}

	if err := e.producer.PublishProviderEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"survivor_id": result.SurvivorID,
			"removed_id":  result.RemovedID,
		}).Error("Failed to emit provider.merged event")
	}
}
