package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeSource struct {
	records []models.ProviderRecord
	err     error
}

func (f *fakeSource) ListAll(ctx context.Context) ([]models.ProviderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newRecord(name, email string, taxID *string) models.ProviderRecord {
	return models.ProviderRecord{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		TaxID:     taxID,
		CreatedAt: time.Now().UTC(),
	}
}

func strptr(s string) *string {
	return &s
}

func newScanner(source ProviderSource) *Scanner {
	return NewScanner(getTestLogger(), source, DefaultScannerConfig())
}

func TestScanEmailPassGroupsCaseAndWhitespaceVariants(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("Alpha", "x@y.com", nil),
		newRecord("Beta", "X@Y.com", nil),
		newRecord("Gamma", " x@y.com ", nil),
		newRecord("Delta", "other@y.com", nil),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, models.MatchTypeEmail, group.MatchType)
	assert.Equal(t, "x@y.com", group.Value)
	assert.Len(t, group.Records, 3)
	assert.Nil(t, group.Similarity)
	assert.Equal(t, 2, result.TotalDuplicates)
	assert.Equal(t, 4, result.ScannedCount)
}

func TestScanMaskedValuesNeverGroup(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("***", "*****", strptr("***")),
		newRecord("***", "*****", strptr("***")),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 0, result.TotalDuplicates)
}

func TestScanTaxIDPassExcludesRecordsClaimedByEmailPass(t *testing.T) {
	// Same email AND same tax id: the email pass claims them, so the tax id
	// pass must not produce a second group for the same pair.
	records := []models.ProviderRecord{
		newRecord("Alpha", "dup@y.com", strptr("123456789")),
		newRecord("Beta", "dup@y.com", strptr("123456789")),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, models.MatchTypeEmail, result.Groups[0].MatchType)
}

func TestScanTaxIDPass(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("Alpha", "a@y.com", strptr("123456789")),
		newRecord("Beta", "b@y.com", strptr(" 123456789 ")),
		newRecord("Gamma", "c@y.com", nil),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, models.MatchTypeTaxID, group.MatchType)
	assert.Equal(t, "123456789", group.Value)
	assert.Len(t, group.Records, 2)
}

func TestScanNamePassAccentNormalization(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("João Silva", "a@y.com", nil),
		newRecord("Joao Silva", "b@y.com", nil),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, models.MatchTypeName, group.MatchType)
	require.NotNil(t, group.Similarity)
	assert.Equal(t, 100, *group.Similarity)
	assert.Len(t, group.Records, 2)
}

func TestScanNamePassTransitiveSingleLinkClustering(t *testing.T) {
	// A-B and B-C are above the threshold, A-C is below it. Single-link
	// clustering still puts all three in one group via B.
	a := newRecord("aaaaaaaaaa", "a@y.com", nil)
	b := newRecord("aaaaaaaaab", "b@y.com", nil)
	c := newRecord("aaaaaaaabb", "c@y.com", nil)

	scorer := NewScorer()
	require.GreaterOrEqual(t, scorer.Similarity(a.Name, b.Name), 85)
	require.GreaterOrEqual(t, scorer.Similarity(b.Name, c.Name), 85)
	require.Less(t, scorer.Similarity(a.Name, c.Name), 85)

	scanner := newScanner(&fakeSource{records: []models.ProviderRecord{a, b, c}})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, models.MatchTypeName, group.MatchType)
	assert.Len(t, group.Records, 3)

	// The reported similarity is the weakest pair inside the group, the A-C
	// edge that never reached the threshold on its own.
	require.NotNil(t, group.Similarity)
	assert.Equal(t, scorer.Similarity(a.Name, c.Name), *group.Similarity)
	assert.Equal(t, 80, *group.Similarity)
}

func TestScanNamePassBelowThreshold(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("Maria Fernandes", "a@y.com", nil),
		newRecord("Carlos Pereira", "b@y.com", nil),
	}

	scanner := newScanner(&fakeSource{records: records})
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
}

func TestScanSourceErrorAborts(t *testing.T) {
	scanner := newScanner(&fakeSource{err: errors.New("registry unavailable")})
	result, err := scanner.Scan(context.Background())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestScanRecordsMixedPasses(t *testing.T) {
	records := []models.ProviderRecord{
		newRecord("Alpha", "dup@y.com", nil),
		newRecord("Beta", "dup@y.com", nil),
		newRecord("Gamma", "c@y.com", strptr("999888777")),
		newRecord("Delta", "d@y.com", strptr("999888777")),
		newRecord("João Silva", "e@y.com", nil),
		newRecord("Joao Silva", "f@y.com", nil),
		newRecord("Unrelated", "g@y.com", nil),
	}

	scanner := newScanner(&fakeSource{records: records})
	result := scanner.ScanRecords(context.Background(), records)

	require.Len(t, result.Groups, 3)
	assert.Equal(t, models.MatchTypeEmail, result.Groups[0].MatchType)
	assert.Equal(t, models.MatchTypeTaxID, result.Groups[1].MatchType)
	assert.Equal(t, models.MatchTypeName, result.Groups[2].MatchType)
	assert.Equal(t, 3, result.TotalDuplicates)
	assert.Equal(t, 7, result.ScannedCount)
}
