package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracedeck/tracedeck/internal/core/domain"
)

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", TruncateName("short", 40))
	assert.Equal(t, "abc…", TruncateName("abcdef", 3))
	assert.Equal(t, "", TruncateName("", 40))

	// Rune-safe: multi-byte characters are never split.
	assert.Equal(t, "héllo…", TruncateName("héllo wörld", 5))
}

func TestTypeColorFallback(t *testing.T) {
	assert.NotEqual(t, neutralColor, TypeColor(domain.NodeTypeLLM))
	assert.Equal(t, neutralColor, TypeColor("made-up"))
}

func TestStatusGlyphFallback(t *testing.T) {
	assert.Equal(t, "✓", StatusGlyph(domain.StatusCompleted))
	assert.Empty(t, StatusGlyph("made-up"))
}
