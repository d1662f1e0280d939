// Package normalizers provides field normalization functions for duplicate matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaskRune is the placeholder character used when a record's identifying
// fields are anonymized on archival.
const MaskRune = '*'

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("strip_accents", StripAccents)
	Register("nemail", NormalizeEmail)
	Register("ntaxid", NormalizeTaxID)
	Register("nname", NormalizeName)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// StripAccents removes combining diacritical marks after Unicode canonical
// decomposition, so "João" and "Joao" compare equal.
func StripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// NormalizeEmail normalizes an email address for exact matching (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTaxID normalizes a tax identifier for exact matching
func NormalizeTaxID(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeName normalizes a provider name for fuzzy matching:
// lowercase, accent stripping, whitespace collapse.
func NormalizeName(s string) string {
	s = StripAccents(strings.ToLower(s))

	var result strings.Builder
	result.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}

	return strings.TrimSpace(result.String())
}

// IsMasked reports whether the trimmed value is non-empty and consists
// entirely of the mask placeholder. Masked values belong to anonymized
// records and are excluded from every matching pass.
func IsMasked(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != MaskRune {
			return false
		}
	}
	return true
}
