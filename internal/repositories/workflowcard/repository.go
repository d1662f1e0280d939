// Package workflowcard persists the singular onboarding kanban card
package workflowcard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/database"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// Repository handles workflow card persistence. A provider holds at most one
// card; the driver may still hand back several rows, so reads normalize to a
// single optional card here at the store boundary.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new workflow card repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByProvider returns the provider's active card, or nil, nil when the
// provider has none. If more than one row exists, the oldest wins.
func (r *Repository) GetByProvider(ctx context.Context, providerID uuid.UUID) (*models.WorkflowCard, error) {
	ctx, span := tracing.StartSpan(ctx, "workflowcard.Repository.GetByProvider")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "provider_id", "stage", "position", "created_at")
	sb.From("workflow_cards")
	sb.Where(sb.Equal("provider_id", providerID))
	sb.OrderBy("created_at ASC")
	sb.Limit(1)

	query, args := sb.Build()
	var card models.WorkflowCard
	if err := r.db.GetContext(ctx, &card, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": providerID}).Error("Failed to get workflow card")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get workflow card")
	}

	return &card, nil
}

// Repoint moves a card to another provider.
func (r *Repository) Repoint(ctx context.Context, cardID, toProviderID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "workflowcard.Repository.Repoint")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("workflow_cards")
	ub.Set(ub.Assign("provider_id", toProviderID))
	ub.Where(ub.Equal("id", cardID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"card_id": cardID}).Error("Failed to re-point workflow card")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to re-point workflow card")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("workflow card %s not found", cardID))
	}

	return nil
}

// Absorb folds one card into another: every task of the source card moves to
// the target card, then the source card is removed. Both statements run in
// one transaction so a failure never leaves orphaned tasks.
func (r *Repository) Absorb(ctx context.Context, sourceCardID, targetCardID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "workflowcard.Repository.Absorb")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"source_card_id": sourceCardID,
		"target_card_id": targetCardID,
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ub := database.NewUpdateBuilder()
	ub.Update("workflow_tasks")
	ub.Set(ub.Assign("card_id", targetCardID))
	ub.Where(ub.Equal("card_id", sourceCardID))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to re-point workflow tasks")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to re-point workflow tasks")
	}

	dbuilder := database.NewDeleteBuilder()
	dbuilder.DeleteFrom("workflow_cards")
	dbuilder.Where(dbuilder.Equal("id", sourceCardID))

	query, args = dbuilder.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to delete absorbed workflow card")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete absorbed workflow card")
	}

	if err := tx.Commit(ctx); err != nil {
		log.WithError(err).Error("Failed to commit workflow card absorb")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit workflow card absorb")
	}

	return nil
}
