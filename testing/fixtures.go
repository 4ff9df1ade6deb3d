// Package testing provides shared fixtures for stasis's own test suite and
// its cross-backend integration/benchmark suites.
package testing

import (
	"errors"

	"github.com/zoobzio/stasis"
)

// TestSecret returns a fixed HMAC secret for tests that exercise
// authenticated framing.
func TestSecret() string {
	return "integration-test-secret-do-not-use-in-prod"
}

// SimpleUser is a plain, natively-serializable struct with no cycles or
// opaque fields, used to exercise the fast path.
type SimpleUser struct {
	ID   string `json:"id" yaml:"id" msgpack:"id" xml:"id" bson:"id"`
	Name string `json:"name" yaml:"name" msgpack:"name" xml:"name" bson:"name"`
}

// CyclicNode is a linked structure that can point back to itself, used to
// exercise reference-identity preservation and cycle termination through
// the slow path.
type CyclicNode struct {
	Label string
	Next  *CyclicNode
}

const cyclicNodeClassTag = "testing.cyclicNode"

// CyclicNodeTransformer is a Transformer for *CyclicNode. A bare struct
// reached through a pointer has no default reconstruction rule of its own
// (unlike a map, it carries no built-in class tag), so round-tripping one
// always needs a Transformer such as this to fold it into a map-shaped
// placeholder and rebuild it on the other side.
//
// It does not attempt to resolve a *CyclicNode that points back to itself:
// Resolve runs before the placeholder it's reconstructing has an attached
// instance, so a field that aliases the node currently being built would
// read as unresolved. Shared, non-self-referential pointers (two fields
// aliasing the same *CyclicNode) resolve correctly, since nothing defers
// in that case.
type CyclicNodeTransformer struct{}

// Transforms reports whether value is a *CyclicNode.
func (CyclicNodeTransformer) Transforms(value any) bool {
	_, ok := value.(*CyclicNode)
	return ok
}

// Transform folds a *CyclicNode into a map-shaped placeholder payload.
func (CyclicNodeTransformer) Transform(value any) (*stasis.Placeholder, error) {
	n := value.(*CyclicNode)
	ph := stasis.NewPlaceholder(cyclicNodeClassTag)
	ph.Live = map[string]any{"label": n.Label, "next": n.Next}
	return ph, nil
}

// Resolves reports whether ph was produced by Transform.
func (CyclicNodeTransformer) Resolves(ph *stasis.Placeholder) bool {
	return ph.ClassTag == cyclicNodeClassTag
}

// Resolve rebuilds a *CyclicNode from its map-shaped payload.
func (CyclicNodeTransformer) Resolve(ph *stasis.Placeholder) (any, error) {
	arr, ok := ph.Live.(*stasis.Array)
	if !ok {
		return nil, errors.New("testing: cyclicNode placeholder has no array payload")
	}
	n := &CyclicNode{}
	if label, ok := arr.Get(stasis.StringKey("label")); ok {
		n.Label, _ = label.(string)
	}
	if next, ok := arr.Get(stasis.StringKey("next")); ok {
		n.Next, _ = next.(*CyclicNode)
	}
	return n, nil
}

// ClosureOver returns a closure capturing n, the kind of value no native
// backend here can marshal and that a default, transformer-free decode can
// never reconstruct.
func ClosureOver(n int) func() int {
	return func() int { return n }
}

// CounterTransformer is a Transformer for funcs built by ClosureOver. It
// demonstrates folding a closure's meaningful captured state into a
// placeholder and reconstructing an equivalent closure on resolve.
type CounterTransformer struct{}

const counterClassTag = "testing.counter"

// Transforms reports whether value is a func() int.
func (CounterTransformer) Transforms(value any) bool {
	_, ok := value.(func() int)
	return ok
}

// Transform captures the closure's current return value as the
// placeholder's live payload.
func (CounterTransformer) Transform(value any) (*stasis.Placeholder, error) {
	fn := value.(func() int)
	ph := stasis.NewPlaceholder(counterClassTag)
	ph.Live = fn()
	return ph, nil
}

// Resolves reports whether ph was produced by Transform.
func (CounterTransformer) Resolves(ph *stasis.Placeholder) bool {
	return ph.ClassTag == counterClassTag
}

// Resolve reconstructs a closure returning the captured value.
func (CounterTransformer) Resolve(ph *stasis.Placeholder) (any, error) {
	n, _ := ph.Live.(int64)
	captured := int(n)
	return func() int { return captured }, nil
}
