package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// markdownPattern matches characters Discord treats as formatting.
var markdownPattern = regexp.MustCompile("[*_`~|\\\\]")

var printer = message.NewPrinter(language.English)

// EscapeMarkdown prefixes Discord formatting characters with a backslash.
func EscapeMarkdown(s string) string {
	return markdownPattern.ReplaceAllString(s, `\$0`)
}

// TruncateString shortens s to at most maxLength runes, ending in "..." when cut.
func TruncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string([]rune(s)[:maxLength])
	}
	return string([]rune(s)[:maxLength-3]) + "..."
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// BulletList renders up to limit items as a bulleted list, or "None".
func BulletList(items []string, limit int) string {
	if len(items) == 0 {
		return "None"
	}

	var b strings.Builder
	for i, item := range items[:min(limit, len(items))] {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(item)
	}
	return b.String()
}
