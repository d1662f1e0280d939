// Package matching implements duplicate detection over the provider registry
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/normalizers"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// ProviderSource loads the registry slice a scan runs over.
type ProviderSource interface {
	ListAll(ctx context.Context) ([]models.ProviderRecord, error)
}

// ScannerConfig contains configuration for the duplicate scanner
type ScannerConfig struct {
	// NameMatchThreshold is the minimum similarity (0-100) for two names to
	// be considered duplicates in the fuzzy pass.
	NameMatchThreshold int
}

// DefaultScannerConfig returns default scanner configuration
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		NameMatchThreshold: 85,
	}
}

// Scanner finds duplicate provider records using three sequential passes:
// exact email, exact tax id, then fuzzy name. Each pass only considers
// records not already claimed by an earlier, higher-confidence pass.
type Scanner struct {
	logger ectologger.Logger
	source ProviderSource
	scorer *Scorer
	config ScannerConfig
}

// NewScanner creates a new duplicate scanner
func NewScanner(logger ectologger.Logger, source ProviderSource, config ScannerConfig) *Scanner {
	if config.NameMatchThreshold <= 0 {
		config.NameMatchThreshold = DefaultScannerConfig().NameMatchThreshold
	}
	return &Scanner{
		logger: logger,
		source: source,
		scorer: NewScorer(),
		config: config,
	}
}

// Scan loads the full registry and returns every duplicate group found.
func (s *Scanner) Scan(ctx context.Context) (*models.ScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Scanner.Scan")
	defer span.End()

	log := s.logger.WithContext(ctx)

	records, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := s.ScanRecords(ctx, records)

	log.WithFields(map[string]any{
		"scanned_count":    result.ScannedCount,
		"group_count":      len(result.Groups),
		"total_duplicates": result.TotalDuplicates,
	}).Info("Duplicate scan complete")

	return result, nil
}

// ScanRecords runs the three matching passes over an in-memory registry slice.
func (s *Scanner) ScanRecords(ctx context.Context, records []models.ProviderRecord) *models.ScanResult {
	_, span := tracing.StartSpan(ctx, "matching.Scanner.ScanRecords")
	defer span.End()

	claimed := make(map[uuid.UUID]bool, len(records))
	groups := make([]models.DuplicateGroup, 0)

	groups = append(groups, s.emailPass(records, claimed)...)
	groups = append(groups, s.taxIDPass(records, claimed)...)
	groups = append(groups, s.namePass(records, claimed)...)

	totalDuplicates := 0
	for _, group := range groups {
		totalDuplicates += len(group.Records) - 1
	}

	return &models.ScanResult{
		Groups:          groups,
		TotalDuplicates: totalDuplicates,
		ScannedCount:    len(records),
	}
}

// emailPass groups records by normalized email.
func (s *Scanner) emailPass(records []models.ProviderRecord, claimed map[uuid.UUID]bool) []models.DuplicateGroup {
	keyFor := func(record models.ProviderRecord) (string, bool) {
		email := normalizers.NormalizeEmail(record.Email)
		if email == "" || normalizers.IsMasked(email) {
			return "", false
		}
		return email, true
	}
	return s.exactPass(models.MatchTypeEmail, records, claimed, keyFor)
}

// taxIDPass groups unclaimed records by normalized tax id.
func (s *Scanner) taxIDPass(records []models.ProviderRecord, claimed map[uuid.UUID]bool) []models.DuplicateGroup {
	keyFor := func(record models.ProviderRecord) (string, bool) {
		if record.TaxID == nil {
			return "", false
		}
		taxID := normalizers.NormalizeTaxID(*record.TaxID)
		if taxID == "" || normalizers.IsMasked(taxID) {
			return "", false
		}
		return taxID, true
	}
	return s.exactPass(models.MatchTypeTaxID, records, claimed, keyFor)
}

// exactPass performs an equality grouping pass over unclaimed records,
// preserving first-seen ordering of both groups and members.
func (s *Scanner) exactPass(
	matchType models.MatchType,
	records []models.ProviderRecord,
	claimed map[uuid.UUID]bool,
	keyFor func(models.ProviderRecord) (string, bool),
) []models.DuplicateGroup {
	byKey := make(map[string][]models.ProviderRecord)
	keyOrder := make([]string, 0)

	for _, record := range records {
		if claimed[record.ID] {
			continue
		}
		key, ok := keyFor(record)
		if !ok {
			continue
		}
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], record)
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, key := range keyOrder {
		members := byKey[key]
		if len(members) < 2 {
			continue
		}
		for _, member := range members {
			claimed[member.ID] = true
		}
		groups = append(groups, models.DuplicateGroup{
			MatchType: matchType,
			Value:     key,
			Records:   members,
		})
	}

	return groups
}

// namePass clusters the remaining records by fuzzy name similarity.
// Single-link: a candidate joins a group when its similarity to any current
// member reaches the threshold; the group reports the minimum pairwise
// similarity between its members, which can sit below the threshold on
// chained matches. A record already placed in a group never seeds another.
func (s *Scanner) namePass(records []models.ProviderRecord, claimed map[uuid.UUID]bool) []models.DuplicateGroup {
	type candidate struct {
		record models.ProviderRecord
		name   string
	}

	candidates := make([]candidate, 0, len(records))
	for _, record := range records {
		if claimed[record.ID] {
			continue
		}
		if normalizers.IsMasked(record.Name) {
			continue
		}
		name := normalizers.NormalizeName(record.Name)
		if name == "" {
			continue
		}
		candidates = append(candidates, candidate{record: record, name: name})
	}

	groups := make([]models.DuplicateGroup, 0)

	for i := 0; i < len(candidates); i++ {
		seed := candidates[i]
		if claimed[seed.record.ID] {
			continue
		}

		members := []candidate{seed}
		minSimilarity := 100

		for j := i + 1; j < len(candidates); j++ {
			other := candidates[j]
			if claimed[other.record.ID] {
				continue
			}

			best := -1
			similarities := make([]int, len(members))
			for k, member := range members {
				similarities[k] = s.scorer.Similarity(member.name, other.name)
				if similarities[k] > best {
					best = similarities[k]
				}
			}
			if best < s.config.NameMatchThreshold {
				continue
			}

			members = append(members, other)
			claimed[other.record.ID] = true
			for _, similarity := range similarities {
				if similarity < minSimilarity {
					minSimilarity = similarity
				}
			}
		}

		if len(members) < 2 {
			continue
		}
		claimed[seed.record.ID] = true

		memberRecords := make([]models.ProviderRecord, 0, len(members))
		for _, member := range members {
			memberRecords = append(memberRecords, member.record)
		}

		similarity := minSimilarity
		groups = append(groups, models.DuplicateGroup{
			MatchType:  models.MatchTypeName,
			Value:      seed.record.Name,
			Similarity: &similarity,
			Records:    memberRecords,
		})
	}

	return groups
}
