package suggestions

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClip(t *testing.T) {
	assert.Equal(t, "Press <Enter> to confirm", Clip("  Press <Enter> to confirm\n", 0))
	assert.Equal(t, "Add Vec<T> support", Clip("Add Vec<T> support", 0))
	assert.Equal(t, "a < b && c > d", Clip("a < b && c > d", 0))
	assert.Equal(t, "hi <@123>", Clip("hi <@123>", 0))
	assert.Equal(t, "<b>bold</b>", Clip("<b>bold</b>", 0))

	long := strings.Repeat("é", 300)
	out := Clip(long, MaxTitleLen)
	assert.Equal(t, MaxTitleLen, utf8.RuneCountInString(out))

	assert.Equal(t, "ab", Clip("ab   cd", 4))
}
