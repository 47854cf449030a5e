package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatSource(t *testing.T) {
	inner := NewConcatSource(RawSource("b"), RawSource("c"))
	c := NewConcatSource(RawSource("a"), nil, inner)
	c.AddString("d")

	assert.Equal(t, "abcd", c.Source())
	assert.Equal(t, 4, c.Size())
	assert.Equal(t, 3, c.Children())
}

func TestRawSource(t *testing.T) {
	s := RawSource("héllo")
	assert.Equal(t, "héllo", s.Source())
	assert.Equal(t, 6, s.Size(), "size is in bytes")
}
