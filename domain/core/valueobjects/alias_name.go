package valueobjects

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	pkgerrors "wayfinder/pkg/errors"
)

// AliasName is the display name of an alias together with its search key
type AliasName struct {
	display    string
	normalized string
}

var (
	nonSearchable = regexp.MustCompile(`[^a-z0-9\s\-_/]`)
	spaceRun      = regexp.MustCompile(`\s+`)

	// Letters that do not decompose under NFD.
	foldLetters = strings.NewReplacer("đ", "d", "ø", "o", "ł", "l", "ß", "ss", "æ", "ae", "œ", "oe")

	// Common building-name synonyms.
	synonyms = strings.NewReplacer("nha ", "toa ", "khoi ", "khu ")
)

// NewAliasName trims and validates a display name
func NewAliasName(raw string, maxLength int) (AliasName, error) {
	display := strings.TrimSpace(raw)
	if display == "" {
		return AliasName{}, pkgerrors.NewValidationError("alias name cannot be empty")
	}
	if maxLength > 0 && utf8.RuneCountInString(display) > maxLength {
		return AliasName{}, pkgerrors.NewValidationError("alias name is too long")
	}
	return AliasName{display: display, normalized: NormalizeName(display)}, nil
}

// ReconstructAliasName rebuilds a stored name without validation
func ReconstructAliasName(display, normalized string) AliasName {
	if normalized == "" {
		normalized = NormalizeName(display)
	}
	return AliasName{display: display, normalized: normalized}
}

// Display returns the name as entered
func (n AliasName) Display() string { return n.display }

// Normalized returns the search key
func (n AliasName) Normalized() string { return n.normalized }

// NormalizeName folds a name into its search key: lower-case ASCII with
// diacritics stripped, punctuation turned into spaces and runs of
// whitespace collapsed.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = foldLetters.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = nonSearchable.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = synonyms.Replace(s)
	return strings.TrimSpace(s)
}
