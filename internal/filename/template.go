// Package filename renders output filename templates such as
// "[name].[contenthash:8].js".
package filename

import (
	"fmt"
	"regexp"
	"strconv"
)

var placeholder = regexp.MustCompile(`\[(name|id|ext|contenthash|chunkhash|hash)(?::(\d+))?\]`)

// RenderOptions carries the values placeholders expand to.
type RenderOptions struct {
	Name        string
	Extension   string
	ID          string
	ContentHash string
	ChunkHash   string
	Hash        string
}

// Template is a parsed filename template.
type Template struct {
	raw string
}

// Parse validates a template string. Hash truncation lengths must be positive.
func Parse(raw string) (Template, error) {
	if raw == "" {
		return Template{}, fmt.Errorf("filename template is empty")
	}
	for _, m := range placeholder.FindAllStringSubmatch(raw, -1) {
		if m[2] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err != nil || n <= 0 {
			return Template{}, fmt.Errorf("filename template %q: invalid length in %s", raw, m[0])
		}
	}
	return Template{raw: raw}, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant templates.
func MustParse(raw string) Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the raw template.
func (t Template) String() string {
	return t.raw
}

// Render expands every placeholder. A placeholder whose value is empty is an error.
// [ext] expands to the extension including its leading dot.
func (t Template) Render(opts RenderOptions) (string, error) {
	var renderErr error
	out := placeholder.ReplaceAllStringFunc(t.raw, func(match string) string {
		if renderErr != nil {
			return match
		}
		m := placeholder.FindStringSubmatch(match)
		value := lookup(m[1], opts)
		if value == "" {
			renderErr = fmt.Errorf("filename template %q: no value for [%s]", t.raw, m[1])
			return match
		}
		if m[2] != "" {
			n, _ := strconv.Atoi(m[2])
			if n < len(value) {
				value = value[:n]
			}
		}
		return value
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

func lookup(name string, opts RenderOptions) string {
	switch name {
	case "name":
		return opts.Name
	case "id":
		return opts.ID
	case "ext":
		return opts.Extension
	case "contenthash":
		return opts.ContentHash
	case "chunkhash":
		return opts.ChunkHash
	case "hash":
		return opts.Hash
	}
	return ""
}
