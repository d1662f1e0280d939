package models

import (
	"time"

	"github.com/google/uuid"
)

// MergeChoice selects which side of an interactive merge supplies a field.
type MergeChoice string

const (
	ChoiceA     MergeChoice = "a"
	ChoiceB     MergeChoice = "b"
	ChoiceMerge MergeChoice = "merge" // multi-valued fields only: set union
)

// FieldSelection is the reviewer's per-field choice for an interactive merge
// of record A (the survivor) and record B (the record folded in).
type FieldSelection struct {
	Name          MergeChoice `json:"name" validate:"oneof=a b"`
	Email         MergeChoice `json:"email" validate:"oneof=a b"`
	TaxID         MergeChoice `json:"tax_id" validate:"oneof=a b"`
	Category      MergeChoice `json:"category" validate:"oneof=a b"`
	Website       MergeChoice `json:"website" validate:"oneof=a b"`
	TeamSize      MergeChoice `json:"team_size" validate:"oneof=a b"`
	HasAdminStaff MergeChoice `json:"has_admin_staff" validate:"oneof=a b"`
	OwnsTransport MergeChoice `json:"owns_transport" validate:"oneof=a b"`
	WorkingHours  MergeChoice `json:"working_hours" validate:"oneof=a b"`
	Status        MergeChoice `json:"status" validate:"oneof=a b"`
	Manager       MergeChoice `json:"manager" validate:"oneof=a b"`
	ServiceTags   MergeChoice `json:"service_tags" validate:"oneof=a b merge"`
	RegionTags    MergeChoice `json:"region_tags" validate:"oneof=a b merge"`
}

// CanonicalFields is the computed field set written to the survivor record.
// The planner produces it; no mutation happens at planning time.
type CanonicalFields struct {
	Name                string           `json:"name"`
	Email               string           `json:"email"`
	TaxID               *string          `json:"tax_id,omitempty"`
	Category            ProviderCategory `json:"category"`
	Website             string           `json:"website"`
	ServiceTags         []string         `json:"service_tags"`
	RegionTags          []string         `json:"region_tags"`
	TeamSize            int              `json:"team_size"`
	HasAdminStaff       bool             `json:"has_admin_staff"`
	OwnsTransport       bool             `json:"owns_transport"`
	WorkingHours        string           `json:"working_hours"`
	Status              ProviderStatus   `json:"status"`
	ManagerID           *uuid.UUID       `json:"manager_id,omitempty"`
	ApplicationCount    int              `json:"application_count"`
	FirstApplicationAt  *time.Time       `json:"first_application_at,omitempty"`
	OnboardingStartedAt *time.Time       `json:"onboarding_started_at,omitempty"`
	ActivatedAt         *time.Time       `json:"activated_at,omitempty"`
	SuspendedAt         *time.Time       `json:"suspended_at,omitempty"`
}

// MergeOperation is one planned fold of a source record into its survivor.
// Internal to the bulk path: created by planning, executed exactly once,
// discarded after. SourceName/SourceEmail are denormalized so the audit
// message can still name the removed record after it is gone.
type MergeOperation struct {
	TargetID    uuid.UUID
	SourceID    uuid.UUID
	Fields      CanonicalFields
	MatchType   MatchType
	SourceName  string
	SourceEmail string
}

// MergeResult is the outcome of a single interactive merge.
type MergeResult struct {
	SurvivorID uuid.UUID `json:"survivor_id"`
	RemovedID  uuid.UUID `json:"removed_id"`
}

// BulkMergeResult is the aggregate outcome of an automatic merge pass.
// Failures are tallied, never silently dropped.
type BulkMergeResult struct {
	MergedCount int `json:"merged_count"`
	FailedCount int `json:"failed_count"`
}
