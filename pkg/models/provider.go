// Package models contains the domain types for the provider registry and
// the duplicate detection / merge engine.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProviderCategory is the legal shape of a provider.
type ProviderCategory string

const (
	CategoryIndividual ProviderCategory = "individual"
	CategorySoleTrader ProviderCategory = "sole_trader"
	CategoryCompany    ProviderCategory = "company"
)

// ProviderStatus is the lifecycle status of a provider.
type ProviderStatus string

const (
	StatusNew        ProviderStatus = "new"
	StatusOnboarding ProviderStatus = "onboarding"
	StatusActive     ProviderStatus = "active"
	StatusSuspended  ProviderStatus = "suspended"
	StatusAbandoned  ProviderStatus = "abandoned"
)

// ProviderRecord is a row in the provider registry.
//
// Email and tax_id are expected to be unique across the registry when they are
// non-null and non-masked; the duplicate scanner exists to find and repair
// violations of that expectation.
type ProviderRecord struct {
	ID                  uuid.UUID        `db:"id" json:"id"`
	Name                string           `db:"name" json:"name"`
	Email               string           `db:"email" json:"email"`
	TaxID               *string          `db:"tax_id" json:"tax_id,omitempty"`
	Category            ProviderCategory `db:"category" json:"category"`
	Website             string           `db:"website" json:"website"`
	ServiceTags         pq.StringArray   `db:"service_tags" json:"service_tags"`
	RegionTags          pq.StringArray   `db:"region_tags" json:"region_tags"`
	TeamSize            int              `db:"team_size" json:"team_size"`
	HasAdminStaff       bool             `db:"has_admin_staff" json:"has_admin_staff"`
	OwnsTransport       bool             `db:"owns_transport" json:"owns_transport"`
	WorkingHours        string           `db:"working_hours" json:"working_hours"`
	Status              ProviderStatus   `db:"status" json:"status"`
	ApplicationCount    int              `db:"application_count" json:"application_count"`
	FirstApplicationAt  *time.Time       `db:"first_application_at" json:"first_application_at,omitempty"`
	OnboardingStartedAt *time.Time       `db:"onboarding_started_at" json:"onboarding_started_at,omitempty"`
	ActivatedAt         *time.Time       `db:"activated_at" json:"activated_at,omitempty"`
	SuspendedAt         *time.Time       `db:"suspended_at" json:"suspended_at,omitempty"`
	ManagerID           *uuid.UUID       `db:"manager_id" json:"manager_id,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}

// Relation identifies a child table holding rows owned by a provider.
type Relation struct {
	Table  string
	Column string
}

// ProviderRelations lists every one-to-many child table that references a
// provider. The relationship migrator re-points all of them when a duplicate
// record is folded into its survivor. The workflow card is handled separately
// because a provider holds at most one.
func ProviderRelations() []Relation {
	return []Relation{
		{Table: "provider_notes", Column: "provider_id"},
		{Table: "provider_history", Column: "provider_id"},
		{Table: "provider_applications", Column: "provider_id"},
		{Table: "provider_alerts", Column: "provider_id"},
		{Table: "provider_documents", Column: "provider_id"},
		{Table: "price_entries", Column: "provider_id"},
		{Table: "price_snapshots", Column: "provider_id"},
		{Table: "provider_services", Column: "provider_id"},
		{Table: "priority_logs", Column: "provider_id"},
	}
}

// WorkflowCard is the active onboarding kanban card for a provider. A provider
// has at most one; the store boundary normalizes whatever the driver returns
// into this optional reference.
type WorkflowCard struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	Stage      string    `db:"stage" json:"stage"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
