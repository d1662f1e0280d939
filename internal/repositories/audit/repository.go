// Package audit persists append-only provider history entries
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/database"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// Repository handles audit entry persistence. Entries are append-only:
// there is no update or delete path.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit entry for a provider.
func (r *Repository) Append(ctx context.Context, entry *models.AuditEntry) error {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.Append")
	defer span.End()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("provider_audit")
	ib.Cols("id", "provider_id", "event_type", "description", "old_value", "new_value", "actor", "created_at")
	ib.Values(entry.ID, entry.ProviderID, entry.EventType, entry.Description, []byte(entry.OldValue), []byte(entry.NewValue), entry.Actor, entry.CreatedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider_id": entry.ProviderID,
			"event_type":  entry.EventType,
		}).Error("Failed to append audit entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append audit entry")
	}

	return nil
}

// ListByProvider returns a provider's history, newest first.
func (r *Repository) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.ListByProvider")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "provider_id", "event_type", "description", "old_value", "new_value", "actor", "created_at")
	sb.From("provider_audit")
	sb.Where(sb.Equal("provider_id", providerID))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": providerID}).Error("Failed to list audit entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}

	return entries, nil
}
