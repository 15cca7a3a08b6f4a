package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Corner Cafe", Text("  Corner Cafe  "))
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", Text("<b>bold</b>"))
	assert.Equal(t, "", Text("   "))
}

func TestTextPtr(t *testing.T) {
	t.Parallel()

	assert.Nil(t, TextPtr(nil))

	raw := " <i>hi</i> "
	got := TextPtr(&raw)
	if assert.NotNil(t, got) {
		assert.Equal(t, "&lt;i&gt;hi&lt;/i&gt;", *got)
	}
}

func TestStringSlice(t *testing.T) {
	t.Parallel()

	assert.Nil(t, StringSlice(nil))
	assert.Nil(t, StringSlice([]string{"", "   "}))
	assert.Equal(t, []string{"red", "blue"}, StringSlice([]string{" red ", "blue", ""}))
}

func TestPromptStripsMarkup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "How was your visit?", Prompt("<script>alert(1)</script>How was your visit?"))
	assert.Equal(t, "Rate us", Prompt("<b>Rate us</b>"))
}
