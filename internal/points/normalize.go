package points

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// whitespaceRuns matches any run of whitespace, including unicode separators.
	whitespaceRuns = regexp.MustCompile(`[\s\p{Z}]+`)
	// emphasisMarkup matches the markdown emphasis characters Discord renders.
	emphasisMarkup = regexp.MustCompile("[*_~`]")
	// emojiTokens matches custom emoji shortcodes like :wave:.
	emojiTokens = regexp.MustCompile(`:\w+:`)
	// urlTokens matches http and https links up to the next whitespace.
	urlTokens = regexp.MustCompile(`https?://\S+`)
	// mentionTokens matches user, nickname, role and channel mentions.
	mentionTokens = regexp.MustCompile(`<(?:@[!&]?|#)\d+>`)
)

// Normalize folds a chat message into the canonical form used for scoring
// and duplicate detection. The result is lowercase, has collapsed whitespace
// and carries no markup, emoji shortcodes, links or mentions.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Casers keep internal state so each call gets its own
	s := cases.Lower(language.Und).String(text)
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = emphasisMarkup.ReplaceAllString(s, "")
	s = emojiTokens.ReplaceAllString(s, "")
	s = urlTokens.ReplaceAllString(s, "")
	s = mentionTokens.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// Length counts characters the way scoring does, in code points.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// distinctChars counts the distinct non-space characters in s.
func distinctChars(s string) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		seen[r] = struct{}{}
	}
	return len(seen)
}

// wordCount counts whitespace separated words, ignoring empty tokens.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
