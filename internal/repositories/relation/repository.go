// Package relation re-points dependent child-table rows between providers
package relation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/database"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// Repository updates foreign keys of the one-to-many child tables that hang
// off a provider. The table and column names come from the relation registry
// in models, never from request input.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new relation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Repoint moves every row of one child table from one provider to another.
// Zero affected rows is a valid outcome: most providers have rows in only a
// few of the child tables.
func (r *Repository) Repoint(ctx context.Context, relation models.Relation, fromID, toID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "relation.Repository.Repoint")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(relation.Table)
	ub.Set(ub.Assign(relation.Column, toID))
	ub.Where(ub.Equal(relation.Column, fromID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table":   relation.Table,
			"from_id": fromID,
			"to_id":   toID,
		}).Error("Failed to re-point relation rows")
		return httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to re-point %s", relation.Table))
	}

	return nil
}
