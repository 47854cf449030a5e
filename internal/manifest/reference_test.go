package manifest

import (
	"testing"

	"github.com/gowebpki/jcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Canonical output must already be in RFC 8785 form: transforming it again
// is a no-op.
func assertRFC8785(t *testing.T, got []byte) {
	t.Helper()
	want, err := jcs.Transform(got)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMarshalCanonical_MatchesRFC8785(t *testing.T) {
	values := map[string]any{
		"keys": map[string]any{
			"～":          int64(1),
			"\U0001F600": int64(2),
			"é":     "café",
			"a":          []any{"\x01\t\"\\", false, int64(-7)},
		},
		"escapes": "<script>& </script>",
		"nested":  map[string]any{"z": []string{}, "y": map[string]string{"b": "2", "a": "1"}},
	}

	for name, v := range values {
		t.Run(name, func(t *testing.T) {
			got, err := MarshalCanonical(v)
			require.NoError(t, err)
			assertRFC8785(t, got)
		})
	}
}

func TestManifest_MatchesRFC8785(t *testing.T) {
	got, err := sample().MarshalCanonical()
	require.NoError(t, err)
	assertRFC8785(t, got)
}
