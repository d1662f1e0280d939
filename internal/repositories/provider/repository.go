// Package provider persists provider registry records
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/database"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

var columns = []string{
	"id", "name", "email", "tax_id", "category", "website",
	"service_tags", "region_tags", "team_size", "has_admin_staff",
	"owns_transport", "working_hours", "status", "application_count",
	"first_application_at", "onboarding_started_at", "activated_at",
	"suspended_at", "manager_id", "created_at",
}

// Repository handles provider record persistence
type Repository struct {
	db        database.DB
	logger    ectologger.Logger
	listLimit int
}

// NewRepository creates a new provider repository. listLimit caps ListAll;
// it exists to bound a full-registry read, not to page it.
func NewRepository(db database.DB, logger ectologger.Logger, listLimit int) *Repository {
	if listLimit <= 0 {
		listLimit = 50000
	}
	return &Repository{
		db:        db,
		logger:    logger,
		listLimit: listLimit,
	}
}

// ListAll returns the complete registry ordered by creation time. The scan
// needs the whole table, so the limit is explicit and generous rather than
// the store's default page size.
func (r *Repository) ListAll(ctx context.Context) ([]models.ProviderRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("providers")
	sb.OrderBy("created_at ASC")
	sb.Limit(r.listLimit)

	query, args := sb.Build()
	var records []models.ProviderRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list providers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return records, nil
}

// Get retrieves a provider by ID. Returns nil, nil when the record does not
// exist so callers can decide whether absence is an error.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.ProviderRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("providers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var record models.ProviderRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": id}).Error("Failed to get provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get provider")
	}

	return &record, nil
}

// UpdateFields writes a planned canonical field set onto a provider.
// Re-applying the same field set is a no-op, so the write is safe to retry.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields models.CanonicalFields) error {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.UpdateFields")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("providers")
	sb.Set(
		sb.Assign("name", fields.Name),
		sb.Assign("email", fields.Email),
		sb.Assign("tax_id", fields.TaxID),
		sb.Assign("category", fields.Category),
		sb.Assign("website", fields.Website),
		sb.Assign("service_tags", pq.Array(fields.ServiceTags)),
		sb.Assign("region_tags", pq.Array(fields.RegionTags)),
		sb.Assign("team_size", fields.TeamSize),
		sb.Assign("has_admin_staff", fields.HasAdminStaff),
		sb.Assign("owns_transport", fields.OwnsTransport),
		sb.Assign("working_hours", fields.WorkingHours),
		sb.Assign("status", fields.Status),
		sb.Assign("application_count", fields.ApplicationCount),
		sb.Assign("first_application_at", fields.FirstApplicationAt),
		sb.Assign("onboarding_started_at", fields.OnboardingStartedAt),
		sb.Assign("activated_at", fields.ActivatedAt),
		sb.Assign("suspended_at", fields.SuspendedAt),
		sb.Assign("manager_id", fields.ManagerID),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": id}).Error("Failed to update provider fields")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update provider")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", id))
	}

	return nil
}

// Delete removes a provider record. Callers must have migrated every
// dependent relation first.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("providers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": id}).Error("Failed to delete provider")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete provider")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", id))
	}

	return nil
}
