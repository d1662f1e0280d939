package models

// MatchType says which scan pass produced a duplicate group.
type MatchType string

const (
	MatchTypeEmail MatchType = "email"
	MatchTypeTaxID MatchType = "tax_id"
	MatchTypeName  MatchType = "name"
)

// Exact reports whether the match type is safe for unattended merging.
// Fuzzy name matches always require human confirmation.
func (t MatchType) Exact() bool {
	return t == MatchTypeEmail || t == MatchTypeTaxID
}

// DuplicateGroup is a set of mutually-duplicate provider records produced by a
// scan. Groups are ephemeral: consumed by the review UI or the automatic merge
// pass, never persisted.
type DuplicateGroup struct {
	MatchType  MatchType        `json:"match_type"`
	Value      string           `json:"value"`
	Similarity *int             `json:"similarity,omitempty"` // name matches only
	Records    []ProviderRecord `json:"records"`
}

// ScanResult is the output of a full registry scan.
type ScanResult struct {
	Groups []DuplicateGroup `json:"groups"`
	// TotalDuplicates is how many records would disappear if every group
	// were merged down to one survivor.
	TotalDuplicates int `json:"total_duplicates"`
	ScannedCount    int `json:"scanned_count"`
}
