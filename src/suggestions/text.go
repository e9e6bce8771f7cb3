package suggestions

import (
	"strings"
	"unicode/utf8"
)

// Field limits mirror the submission form.
const (
	MaxTitleLen       = 256
	MaxDescriptionLen = 4000
	MaxProsConsLen    = 1024
	MaxReasonLen      = 1024
	maxAuthorNameLen  = 128
)

// Clip trims surrounding whitespace and caps s at max runes. The text is
// otherwise kept as typed; Discord renders it as markdown, never as HTML.
func Clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:max]))
	}
	return s
}
