package points

import (
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DuplicateThreshold is the similarity at or above which two messages count as the same.
const DuplicateThreshold = 0.7

// Similarity returns the Sørensen–Dice coefficient of the character bigrams
// of a and b, ignoring whitespace. The result is in [0, 1].
func Similarity(a, b string) float64 {
	first := stripSpaces(a)
	second := stripSpaces(b)

	if string(first) == string(second) {
		return 1
	}
	if len(first) < 2 || len(second) < 2 {
		return 0
	}

	return strutil.Similarity(string(first), string(second), bigramDice())
}

func bigramDice() *metrics.SorensenDice {
	metric := metrics.NewSorensenDice()
	metric.NgramSize = 2
	metric.CaseSensitive = true
	return metric
}

// IsDuplicate reports whether candidate repeats any of the recent messages.
// History is expected most recent first. Candidates too short to score are
// treated as duplicates so they never earn points through this path.
func IsDuplicate(candidate string, history []string) bool {
	if candidate == "" || len(history) == 0 {
		return false
	}

	normalized := Normalize(candidate)
	if Length(normalized) < MinLength {
		return true
	}

	for _, previous := range history {
		prev := Normalize(previous)
		if Length(prev) < MinLength {
			continue
		}

		if Similarity(normalized, prev) >= DuplicateThreshold {
			return true
		}
	}

	return false
}

func stripSpaces(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
