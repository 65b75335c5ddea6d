package stream

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

func TestProperty_FirstResolutionWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("only the first resolved value is observed", prop.ForAll(
		func(values []int) bool {
			exec := executor.NewImmediate()
			s, resolver := New[int](exec)

			var seen []int
			s.Listen(nil, func(v int) { seen = append(seen, v) }, nil)
			for _, v := range values {
				resolver.Succeed(v)
			}

			var late []int
			s.Listen(nil, func(v int) { late = append(late, v) }, nil)

			if len(values) == 0 {
				return len(seen) == 0 && len(late) == 0
			}
			return len(seen) == 1 && seen[0] == values[0] && len(late) == 1 && late[0] == values[0]
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t)
}

// Each step either rebinds to a new pending backing or resolves one of the
// backings created so far. Listeners must only ever observe results from the
// backing that was active when it resolved.
func TestProperty_OnlyActiveBackingDelivers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("superseded backings never deliver", prop.ForAll(
		func(steps []int) bool {
			exec := executor.NewImmediate()
			b := NewBacked[int](exec)

			var seen []int
			b.Listen(nil, func(v int) { seen = append(seen, v) }, nil)

			var resolvers []*Resolver[int]
			var expected []int
			active := -1
			resolved := map[int]bool{}

			for _, step := range steps {
				if step%2 == 0 || len(resolvers) == 0 {
					s, r := New[int](exec)
					resolvers = append(resolvers, r)
					active = len(resolvers) - 1
					b.BackWithStream(s)
					continue
				}
				idx := step % len(resolvers)
				if idx < 0 {
					idx = -idx
				}
				resolvers[idx].Succeed(idx)
				if idx == active && !resolved[idx] {
					expected = append(expected, idx)
				}
				resolved[idx] = true
			}

			if len(seen) != len(expected) {
				return false
			}
			for i := range seen {
				if seen[i] != expected[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.TestingRun(t)
}
