package merging

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// RelationStore re-points rows of one child table from a source provider to
// its survivor.
type RelationStore interface {
	Repoint(ctx context.Context, relation models.Relation, fromID, toID uuid.UUID) error
}

// CardStore accesses the singular onboarding workflow card of a provider.
// GetByProvider returns nil, nil when the provider has no card. Absorb moves
// a source card's tasks onto the target card and removes the source card.
type CardStore interface {
	GetByProvider(ctx context.Context, providerID uuid.UUID) (*models.WorkflowCard, error)
	Repoint(ctx context.Context, cardID, toProviderID uuid.UUID) error
	Absorb(ctx context.Context, sourceCardID, targetCardID uuid.UUID) error
}

// Migrator re-points every dependent relationship of a source provider to the
// surviving record. It never deletes the source record itself; deletion is
// the executor's strictly-last step.
type Migrator struct {
	logger    ectologger.Logger
	relations RelationStore
	cards     CardStore
}

// NewMigrator creates a new Migrator
func NewMigrator(logger ectologger.Logger, relations RelationStore, cards CardStore) *Migrator {
	return &Migrator{
		logger:    logger,
		relations: relations,
		cards:     cards,
	}
}

// Migrate moves every dependent relation from source to target: the child
// tables fan out in parallel, then the workflow card runs as a short
// sequential section because it reads state the parallel updates cannot
// touch but a concurrent card creation could.
func (m *Migrator) Migrate(ctx context.Context, targetID, sourceID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "merging.Migrator.Migrate")
	defer span.End()

	if err := m.MigrateRelations(ctx, targetID, sourceID); err != nil {
		return err
	}
	return m.MigrateCard(ctx, targetID, sourceID)
}

// MigrateRelations re-points all one-to-many child tables in parallel. The
// updates are independent of each other; the first error observed is
// returned after every update has finished.
func (m *Migrator) MigrateRelations(ctx context.Context, targetID, sourceID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "merging.Migrator.MigrateRelations")
	defer span.End()

	relations := models.ProviderRelations()
	errChan := make(chan error, len(relations))

	var wg sync.WaitGroup
	for _, relation := range relations {
		wg.Add(1)
		go func(relation models.Relation) {
			defer wg.Done()
			if err := m.relations.Repoint(ctx, relation, sourceID, targetID); err != nil {
				m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"table":     relation.Table,
					"source_id": sourceID,
					"target_id": targetID,
				}).Error("Failed to re-point relation table")
				errChan <- err
			}
		}(relation)
	}
	wg.Wait()
	close(errChan)

	return <-errChan
}

// MigrateCard handles the singular workflow card: if only the source has
// one, it moves to the target; if both have one, the source card's tasks
// move to the target's card and the source card is discarded so a survivor
// never ends up with two active cards.
func (m *Migrator) MigrateCard(ctx context.Context, targetID, sourceID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "merging.Migrator.MigrateCard")
	defer span.End()

	sourceCard, err := m.cards.GetByProvider(ctx, sourceID)
	if err != nil {
		return err
	}
	if sourceCard == nil {
		return nil
	}

	targetCard, err := m.cards.GetByProvider(ctx, targetID)
	if err != nil {
		return err
	}

	if targetCard == nil {
		return m.cards.Repoint(ctx, sourceCard.ID, targetID)
	}

	return m.cards.Absorb(ctx, sourceCard.ID, targetCard.ID)
}
