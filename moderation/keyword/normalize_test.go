package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("helloworld", ContentKey("Hello World"))
	assert.Equal("helloworld", ContentKey("  hello\n\tWORLD  "))
	assert.Equal("hello", ContentKey("héllo"))
	assert.Equal("buycoins", ContentKey("🚀🚀 BUY COINS 🚀🚀"))
	assert.Equal("", ContentKey("🔥🔥🔥 !!! ..."))
	assert.Equal("привет", ContentKey("Привет!"))
}

func TestContentKeyEquality(t *testing.T) {
	// the grouping key is structural: spacing, emoji and punctuation must not
	// distinguish otherwise identical spam copies
	a := ContentKey("free nitro at example dot com!!!")
	b := ContentKey("FREE   NITRO at example dot com 🎁")
	assert.Equal(t, a, b)
}
