// Package merging implements merge planning, relationship migration, and
// merge execution for duplicate provider records.
package merging

import (
	"net/http"
	"sort"
	"time"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
)

// Planner computes the canonical field set for a merge. Planning is pure
// computation: no store access, no mutation.
type Planner struct{}

// NewPlanner creates a new Planner
func NewPlanner() *Planner {
	return &Planner{}
}

// PlanInteractive builds the canonical field set for a reviewed pair merge.
// Record A is the survivor; record B is folded in. Scalar fields follow the
// reviewer's side selection, tag arrays may be unioned, counters and the
// first-application timestamp follow fixed rules regardless of selection.
func (p *Planner) PlanInteractive(a, b models.ProviderRecord, selection models.FieldSelection) models.CanonicalFields {
	fields := models.CanonicalFields{
		Name:          pickString(selection.Name, a.Name, b.Name),
		Email:         pickString(selection.Email, a.Email, b.Email),
		Website:       pickString(selection.Website, a.Website, b.Website),
		WorkingHours:  pickString(selection.WorkingHours, a.WorkingHours, b.WorkingHours),
		TeamSize:      pickInt(selection.TeamSize, a.TeamSize, b.TeamSize),
		HasAdminStaff: pickBool(selection.HasAdminStaff, a.HasAdminStaff, b.HasAdminStaff),
		OwnsTransport: pickBool(selection.OwnsTransport, a.OwnsTransport, b.OwnsTransport),

		// Counters and the first application are never a side choice.
		ApplicationCount:   a.ApplicationCount + b.ApplicationCount,
		FirstApplicationAt: earlierTime(a.FirstApplicationAt, b.FirstApplicationAt),

		// Lifecycle timestamps keep the survivor's value unless it is null.
		OnboardingStartedAt: preferTime(a.OnboardingStartedAt, b.OnboardingStartedAt),
		ActivatedAt:         preferTime(a.ActivatedAt, b.ActivatedAt),
		SuspendedAt:         preferTime(a.SuspendedAt, b.SuspendedAt),
	}

	if selection.TaxID == models.ChoiceB {
		fields.TaxID = b.TaxID
	} else {
		fields.TaxID = a.TaxID
	}
	if selection.Category == models.ChoiceB {
		fields.Category = b.Category
	} else {
		fields.Category = a.Category
	}
	if selection.Status == models.ChoiceB {
		fields.Status = b.Status
	} else {
		fields.Status = a.Status
	}
	if selection.Manager == models.ChoiceB {
		fields.ManagerID = b.ManagerID
	} else {
		fields.ManagerID = a.ManagerID
	}

	fields.ServiceTags = pickTags(selection.ServiceTags, a.ServiceTags, b.ServiceTags)
	fields.RegionTags = pickTags(selection.RegionTags, a.RegionTags, b.RegionTags)

	return fields
}

// PlanAutomatic turns one exact-match duplicate group into merge operations.
// Records are sorted by creation time ascending; the earliest survives and
// every later record becomes one operation folding into it. Fuzzy name groups
// are rejected: they always require human confirmation.
func (p *Planner) PlanAutomatic(group models.DuplicateGroup) ([]models.MergeOperation, error) {
	if !group.MatchType.Exact() {
		return nil, httperror.NewHTTPError(http.StatusConflict, "automatic merge is not allowed for fuzzy name matches")
	}
	if len(group.Records) < 2 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "duplicate group must contain at least two records")
	}

	records := make([]models.ProviderRecord, len(group.Records))
	copy(records, group.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	// Fold sources into a running view of the survivor so counters and
	// filled-in fields accumulate across a group of any size.
	survivor := records[0]
	operations := make([]models.MergeOperation, 0, len(records)-1)

	for _, source := range records[1:] {
		fields := p.planOldestWins(survivor, source)
		operations = append(operations, models.MergeOperation{
			TargetID:    survivor.ID,
			SourceID:    source.ID,
			Fields:      fields,
			MatchType:   group.MatchType,
			SourceName:  source.Name,
			SourceEmail: source.Email,
		})
		applyFields(&survivor, fields)
	}

	return operations, nil
}

// planOldestWins computes the canonical fields for one target/source pair:
// the target's value wins unless it is empty, tag arrays are unioned,
// counters are summed, first application takes the earlier timestamp.
func (p *Planner) planOldestWins(target, source models.ProviderRecord) models.CanonicalFields {
	fields := models.CanonicalFields{
		Name:          firstNonEmpty(target.Name, source.Name),
		Email:         firstNonEmpty(target.Email, source.Email),
		Website:       firstNonEmpty(target.Website, source.Website),
		WorkingHours:  firstNonEmpty(target.WorkingHours, source.WorkingHours),
		HasAdminStaff: target.HasAdminStaff || source.HasAdminStaff,
		OwnsTransport: target.OwnsTransport || source.OwnsTransport,
		ServiceTags:   unionTags(target.ServiceTags, source.ServiceTags),
		RegionTags:    unionTags(target.RegionTags, source.RegionTags),

		ApplicationCount:   target.ApplicationCount + source.ApplicationCount,
		FirstApplicationAt: earlierTime(target.FirstApplicationAt, source.FirstApplicationAt),

		OnboardingStartedAt: preferTime(target.OnboardingStartedAt, source.OnboardingStartedAt),
		ActivatedAt:         preferTime(target.ActivatedAt, source.ActivatedAt),
		SuspendedAt:         preferTime(target.SuspendedAt, source.SuspendedAt),
	}

	fields.TaxID = target.TaxID
	if fields.TaxID == nil || *fields.TaxID == "" {
		fields.TaxID = source.TaxID
	}
	fields.Category = target.Category
	if fields.Category == "" {
		fields.Category = source.Category
	}
	fields.Status = target.Status
	if fields.Status == "" {
		fields.Status = source.Status
	}
	fields.TeamSize = target.TeamSize
	if fields.TeamSize == 0 {
		fields.TeamSize = source.TeamSize
	}
	fields.ManagerID = target.ManagerID
	if fields.ManagerID == nil {
		fields.ManagerID = source.ManagerID
	}

	return fields
}

// applyFields writes a planned field set back onto the in-memory survivor
// between operations of the same group.
func applyFields(record *models.ProviderRecord, fields models.CanonicalFields) {
	record.Name = fields.Name
	record.Email = fields.Email
	record.TaxID = fields.TaxID
	record.Category = fields.Category
	record.Website = fields.Website
	record.ServiceTags = fields.ServiceTags
	record.RegionTags = fields.RegionTags
	record.TeamSize = fields.TeamSize
	record.HasAdminStaff = fields.HasAdminStaff
	record.OwnsTransport = fields.OwnsTransport
	record.WorkingHours = fields.WorkingHours
	record.Status = fields.Status
	record.ManagerID = fields.ManagerID
	record.ApplicationCount = fields.ApplicationCount
	record.FirstApplicationAt = fields.FirstApplicationAt
	record.OnboardingStartedAt = fields.OnboardingStartedAt
	record.ActivatedAt = fields.ActivatedAt
	record.SuspendedAt = fields.SuspendedAt
}

func pickString(choice models.MergeChoice, a, b string) string {
	if choice == models.ChoiceB {
		return b
	}
	return a
}

func pickInt(choice models.MergeChoice, a, b int) int {
	if choice == models.ChoiceB {
		return b
	}
	return a
}

func pickBool(choice models.MergeChoice, a, b bool) bool {
	if choice == models.ChoiceB {
		return b
	}
	return a
}

// pickTags resolves a tag array selection; "merge" produces the set union.
func pickTags(choice models.MergeChoice, a, b []string) []string {
	switch choice {
	case models.ChoiceB:
		return append([]string(nil), b...)
	case models.ChoiceMerge:
		return unionTags(a, b)
	default:
		return append([]string(nil), a...)
	}
}

// unionTags combines two tag arrays, dropping duplicates and keeping
// first-seen order.
func unionTags(a, b []string) []string {
	result := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, tag := range a {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	for _, tag := range b {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// earlierTime returns the earlier of two optional timestamps; a nil side
// falls back to the other.
func earlierTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}

// preferTime keeps the first timestamp unless it is nil.
func preferTime(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}
