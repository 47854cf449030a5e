// Package source provides the emitted-code artifacts chunk rendering builds.
package source

import "strings"

// Source is a piece of emitted code.
type Source interface {
	Source() string
	Size() int
}

// RawSource is a literal string.
type RawSource string

// Source implements Source.
func (s RawSource) Source() string { return string(s) }

// Size implements Source.
func (s RawSource) Size() int { return len(s) }

// ConcatSource joins children in order.
type ConcatSource struct {
	children []Source
}

// NewConcatSource creates a ConcatSource from children.
func NewConcatSource(children ...Source) *ConcatSource {
	c := &ConcatSource{}
	for _, child := range children {
		c.Add(child)
	}
	return c
}

// Add appends a child. Nil children are ignored.
func (c *ConcatSource) Add(s Source) {
	if s == nil {
		return
	}
	c.children = append(c.children, s)
}

// AddString appends a raw string child.
func (c *ConcatSource) AddString(s string) {
	c.children = append(c.children, RawSource(s))
}

// Children returns the number of direct children.
func (c *ConcatSource) Children() int {
	return len(c.children)
}

// Source implements Source.
func (c *ConcatSource) Source() string {
	var b strings.Builder
	b.Grow(c.Size())
	for _, child := range c.children {
		b.WriteString(child.Source())
	}
	return b.String()
}

// Size implements Source.
func (c *ConcatSource) Size() int {
	n := 0
	for _, child := range c.children {
		n += child.Size()
	}
	return n
}
