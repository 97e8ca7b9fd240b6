package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Equal(t, "#121212", Get("dark").BgColor)
	assert.Equal(t, "#F5F5F5", Get("light").BgColor)

	// unknown names fall back to the dark palette
	assert.Equal(t, Get("dark"), Get("solarized"))
	assert.Equal(t, Get("dark"), Get(""))
}

func TestToggle(t *testing.T) {
	assert.Equal(t, "light", Toggle("dark"))
	assert.Equal(t, "dark", Toggle("light"))
	assert.Equal(t, "dark", Toggle("anything-else"))
}

func TestLoadCSS(t *testing.T) {
	css := LoadCSS("dark")
	assert.Contains(t, css, "<style>")
	assert.Contains(t, css, "#121212")
	assert.Contains(t, css, "#1E1E1E")
	assert.Contains(t, css, ".metric-value")

	light := LoadCSS("light")
	assert.Contains(t, light, "#F5F5F5")
	assert.NotEqual(t, css, light)
}
