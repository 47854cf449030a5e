package globals

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// every known flag set
const allFlags = uint64(Global<<1) - 1

func genFlags() gopter.Gen {
	return gen.UInt64Range(0, allFlags)
}

func TestRequirementsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("accumulator only grows", prop.ForAll(
		func(seed uint64, adds []uint64) bool {
			r := NewRequirements(RuntimeGlobals(seed))
			prev := r.Snapshot()
			for _, a := range adds {
				grew := r.Add(RuntimeGlobals(a))
				cur := r.Snapshot()
				if !cur.Has(prev) || !cur.Has(RuntimeGlobals(a)) {
					return false
				}
				if grew != (cur != prev) {
					return false
				}
				prev = cur
			}
			return true
		},
		genFlags(),
		gen.SliceOf(genFlags()),
	))

	properties.Property("re-adding a present set reports no growth", prop.ForAll(
		func(seed, sub uint64) bool {
			r := NewRequirements(RuntimeGlobals(seed))
			return !r.Add(RuntimeGlobals(seed & sub))
		},
		genFlags(),
		genFlags(),
	))

	properties.TestingRun(t)
}

func TestRuntimeGlobalsProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("names parse back to the same set", prop.ForAll(
		func(v uint64) bool {
			g := RuntimeGlobals(v)
			parsed, err := ParseList(g.Names())
			return err == nil && parsed == g
		},
		genFlags(),
	))

	properties.Property("iteration is ascending and covers every flag", prop.ForAll(
		func(v uint64) bool {
			g := RuntimeGlobals(v)
			var union RuntimeGlobals
			var last RuntimeGlobals
			for _, f := range g.Iter() {
				if f.Len() != 1 || f <= last {
					return false
				}
				union = union.Add(f)
				last = f
			}
			return union == g && len(g.Iter()) == g.Len()
		},
		genFlags(),
	))

	properties.TestingRun(t)
}
