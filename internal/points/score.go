// Package points scores chat messages and detects repeated content.
package points

import "strings"

const (
	// MaxRawLength is the longest raw message that can still earn points.
	MaxRawLength = 10000
	// MinLength is the shortest normalized message that can earn points.
	MinLength = 3
	// MaxPoints is the highest score a single message can earn.
	MaxPoints = 4

	// spamGuardLength is the normalized length above which the spam guards apply.
	spamGuardLength = 10
	// minDistinctChars catches repeated-character spam like "aaaaaaaaaaaa".
	minDistinctChars = 3
	// minWords catches long single-token spam.
	minWords = 2
)

// tier maps an exclusive upper length bound to the points awarded below it.
type tier struct {
	below  int
	points int
}

var tiers = []tier{
	{below: 10, points: 1},
	{below: 50, points: 2},
	{below: 200, points: 3},
}

// Score returns the number of points a message is worth, from 0 to MaxPoints.
func Score(text string) int {
	if strings.TrimSpace(text) == "" || Length(text) > MaxRawLength {
		return 0
	}

	normalized := Normalize(text)
	length := Length(normalized)

	if length < MinLength {
		return 0
	}

	if length > spamGuardLength {
		if distinctChars(normalized) < minDistinctChars {
			return 0
		}
		if wordCount(normalized) < minWords {
			return 0
		}
	}

	for _, t := range tiers {
		if length < t.below {
			return t.points
		}
	}

	return MaxPoints
}
