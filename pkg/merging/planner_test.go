package merging

import (
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

func selectionAllA() models.FieldSelection {
	return models.FieldSelection{
		Name: models.ChoiceA, Email: models.ChoiceA, TaxID: models.ChoiceA,
		Category: models.ChoiceA, Website: models.ChoiceA, TeamSize: models.ChoiceA,
		HasAdminStaff: models.ChoiceA, OwnsTransport: models.ChoiceA,
		WorkingHours: models.ChoiceA, Status: models.ChoiceA, Manager: models.ChoiceA,
		ServiceTags: models.ChoiceA, RegionTags: models.ChoiceA,
	}
}

func TestPlanInteractiveSideSelection(t *testing.T) {
	a := models.ProviderRecord{
		ID: uuid.New(), Name: "Alpha Lda", Email: "alpha@y.com",
		Category: models.CategoryCompany, TeamSize: 5,
		ApplicationCount: 2, Status: models.StatusActive,
	}
	b := models.ProviderRecord{
		ID: uuid.New(), Name: "Alpha Limitada", Email: "alpha.limitada@y.com",
		Category: models.CategorySoleTrader, TeamSize: 3,
		ApplicationCount: 1, Status: models.StatusOnboarding,
	}

	planner := NewPlanner()

	selection := selectionAllA()
	selection.Name = models.ChoiceB
	selection.TeamSize = models.ChoiceB

	fields := planner.PlanInteractive(a, b, selection)

	assert.Equal(t, "Alpha Limitada", fields.Name)
	assert.Equal(t, "alpha@y.com", fields.Email)
	assert.Equal(t, 3, fields.TeamSize)
	assert.Equal(t, models.CategoryCompany, fields.Category)
	assert.Equal(t, models.StatusActive, fields.Status)
	// Counters are summed regardless of selection.
	assert.Equal(t, 3, fields.ApplicationCount)
}

func TestPlanInteractiveTagUnion(t *testing.T) {
	a := models.ProviderRecord{ID: uuid.New(), ServiceTags: []string{"A", "B"}, RegionTags: []string{"north"}}
	b := models.ProviderRecord{ID: uuid.New(), ServiceTags: []string{"B", "C"}, RegionTags: []string{"south"}}

	planner := NewPlanner()

	selection := selectionAllA()
	selection.ServiceTags = models.ChoiceMerge
	selection.RegionTags = models.ChoiceB

	fields := planner.PlanInteractive(a, b, selection)

	assert.ElementsMatch(t, []string{"A", "B", "C"}, fields.ServiceTags)
	assert.Equal(t, []string{"south"}, fields.RegionTags)
}

func TestPlanInteractiveFirstApplicationEarlierOfTwo(t *testing.T) {
	earlier := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	planner := NewPlanner()

	a := models.ProviderRecord{ID: uuid.New(), FirstApplicationAt: timePtr(later)}
	b := models.ProviderRecord{ID: uuid.New(), FirstApplicationAt: timePtr(earlier)}
	fields := planner.PlanInteractive(a, b, selectionAllA())
	require.NotNil(t, fields.FirstApplicationAt)
	assert.Equal(t, earlier, *fields.FirstApplicationAt)

	// Null on one side falls back to the other.
	a = models.ProviderRecord{ID: uuid.New()}
	b = models.ProviderRecord{ID: uuid.New(), FirstApplicationAt: timePtr(earlier)}
	fields = planner.PlanInteractive(a, b, selectionAllA())
	require.NotNil(t, fields.FirstApplicationAt)
	assert.Equal(t, earlier, *fields.FirstApplicationAt)
}

func TestPlanInteractiveLifecycleTimestampsKeepSurvivorUnlessNull(t *testing.T) {
	survivorActivated := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	sourceActivated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sourceSuspended := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	a := models.ProviderRecord{ID: uuid.New(), ActivatedAt: timePtr(survivorActivated)}
	b := models.ProviderRecord{ID: uuid.New(), ActivatedAt: timePtr(sourceActivated), SuspendedAt: timePtr(sourceSuspended)}

	fields := NewPlanner().PlanInteractive(a, b, selectionAllA())

	require.NotNil(t, fields.ActivatedAt)
	assert.Equal(t, survivorActivated, *fields.ActivatedAt)
	require.NotNil(t, fields.SuspendedAt)
	assert.Equal(t, sourceSuspended, *fields.SuspendedAt)
}

func TestPlanAutomaticRejectsNameGroups(t *testing.T) {
	group := models.DuplicateGroup{
		MatchType: models.MatchTypeName,
		Records:   []models.ProviderRecord{{ID: uuid.New()}, {ID: uuid.New()}},
	}

	operations, err := NewPlanner().PlanAutomatic(group)

	require.Error(t, err)
	assert.Nil(t, operations)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestPlanAutomaticOldestWins(t *testing.T) {
	oldest := models.ProviderRecord{
		ID: uuid.New(), Name: "Alpha", Email: "dup@y.com",
		ApplicationCount: 1,
		CreatedAt:        time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := models.ProviderRecord{
		ID: uuid.New(), Name: "Alpha Lda", Email: "dup@y.com",
		TaxID:            strPtr("123456789"),
		ApplicationCount: 2,
		CreatedAt:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// Listed newest first to prove sorting by creation time.
	group := models.DuplicateGroup{
		MatchType: models.MatchTypeEmail,
		Value:     "dup@y.com",
		Records:   []models.ProviderRecord{newer, oldest},
	}

	operations, err := NewPlanner().PlanAutomatic(group)
	require.NoError(t, err)
	require.Len(t, operations, 1)

	op := operations[0]
	assert.Equal(t, oldest.ID, op.TargetID)
	assert.Equal(t, newer.ID, op.SourceID)
	assert.Equal(t, "Alpha", op.Fields.Name)
	// Null tax id on the survivor is filled from the source.
	require.NotNil(t, op.Fields.TaxID)
	assert.Equal(t, "123456789", *op.Fields.TaxID)
	assert.Equal(t, 3, op.Fields.ApplicationCount)
	assert.Equal(t, models.MatchTypeEmail, op.MatchType)
	assert.Equal(t, "Alpha Lda", op.SourceName)
}

func TestPlanAutomaticFiveRecordsYieldFourOperations(t *testing.T) {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.ProviderRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, models.ProviderRecord{
			ID:               uuid.New(),
			Name:             "Dup",
			Email:            "dup@y.com",
			ApplicationCount: 1,
			CreatedAt:        base.AddDate(0, 0, i),
		})
	}

	group := models.DuplicateGroup{
		MatchType: models.MatchTypeEmail,
		Value:     "dup@y.com",
		Records:   records,
	}

	operations, err := NewPlanner().PlanAutomatic(group)
	require.NoError(t, err)
	require.Len(t, operations, 4)

	for _, op := range operations {
		assert.Equal(t, records[0].ID, op.TargetID)
	}
	// Counters accumulate across the whole group.
	assert.Equal(t, 5, operations[3].Fields.ApplicationCount)
}

func TestPlanAutomaticUnionsTags(t *testing.T) {
	group := models.DuplicateGroup{
		MatchType: models.MatchTypeTaxID,
		Records: []models.ProviderRecord{
			{ID: uuid.New(), ServiceTags: []string{"A", "B"}, CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: uuid.New(), ServiceTags: []string{"B", "C"}, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	operations, err := NewPlanner().PlanAutomatic(group)
	require.NoError(t, err)
	require.Len(t, operations, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, operations[0].Fields.ServiceTags)
}
