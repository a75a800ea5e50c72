package points_test

import (
	"testing"

	"github.com/peechi-bot/peechi/internal/points"
	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "hello there", b: "hello there", want: 1},
		{name: "whitespace ignored", a: "hello there", b: "hellothere", want: 1},
		{name: "single character", a: "a", b: "b", want: 0},
		{name: "disjoint", a: "abcd", b: "wxyz", want: 0},
		{name: "night and nacht", a: "night", b: "nacht", want: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, points.Similarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	t.Parallel()

	a := "we should meet at the park"
	b := "we could meet in the park later"
	assert.InDelta(t, points.Similarity(a, b), points.Similarity(b, a), 0.0001)
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()
	history := []string{
		"I think we should meet at the park tomorrow afternoon",
		"anyone up for lunch?",
	}

	tests := []struct {
		name      string
		candidate string
		history   []string
		want      bool
	}{
		{
			name:      "empty candidate",
			candidate: "",
			history:   history,
			want:      false,
		},
		{
			name:      "empty history",
			candidate: "anything at all",
			history:   nil,
			want:      false,
		},
		{
			name:      "exact repeat",
			candidate: "I think we should meet at the park tomorrow afternoon",
			history:   history,
			want:      true,
		},
		{
			name:      "near repeat with markup",
			candidate: "**i think we should meet at the park tomorrow afternoon!**",
			history:   history,
			want:      true,
		},
		{
			name:      "unrelated sentence",
			candidate: "the compiler release notes mention faster builds",
			history:   history,
			want:      false,
		},
		{
			name:      "degenerate candidate",
			candidate: "<@123> k",
			history:   history,
			want:      true,
		},
		{
			name:      "degenerate history entries skipped",
			candidate: "a brand new topic to discuss",
			history:   []string{"ok", ":wave:", ""},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, points.IsDuplicate(tt.candidate, tt.history))
		})
	}
}
