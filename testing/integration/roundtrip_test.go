package integration

import (
	"errors"
	"testing"

	"github.com/zoobzio/stasis"
	"github.com/zoobzio/stasis/bson"
	"github.com/zoobzio/stasis/json"
	"github.com/zoobzio/stasis/msgpack"
	stasistest "github.com/zoobzio/stasis/testing"
	"github.com/zoobzio/stasis/xml"
	"github.com/zoobzio/stasis/yaml"
)

// --- Fast path across every backend ---

func TestCodec_FastPath_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func(secret string) *stasis.Codec
	}{
		{"json", func(s string) *stasis.Codec { return stasis.New(json.New(), s) }},
		{"yaml", func(s string) *stasis.Codec { return stasis.New(yaml.New(), s) }},
		{"msgpack", func(s string) *stasis.Codec { return stasis.New(msgpack.New(), s) }},
		{"xml", func(s string) *stasis.Codec { return stasis.New(xml.New(), s) }},
		{"bson", func(s string) *stasis.Codec { return stasis.New(bson.New(), s) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new("")
			const original = "VALUE"

			data, err := c.Serialize(original)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}

			got, err := c.Unserialize(data)
			if err != nil {
				t.Fatalf("Unserialize() error: %v", err)
			}
			restored, ok := got.(string)
			if !ok {
				t.Fatalf("Unserialize() = %T, want string", got)
			}
			if restored != original {
				t.Errorf("Unserialize() = %q, want %q", restored, original)
			}
		})
	}
}

// --- Authenticated framing across every backend ---

func TestCodec_AuthenticatedFraming_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func(secret string) *stasis.Codec
	}{
		{"json", func(s string) *stasis.Codec { return stasis.New(json.New(), s) }},
		{"yaml", func(s string) *stasis.Codec { return stasis.New(yaml.New(), s) }},
		{"msgpack", func(s string) *stasis.Codec { return stasis.New(msgpack.New(), s) }},
		{"xml", func(s string) *stasis.Codec { return stasis.New(xml.New(), s) }},
		{"bson", func(s string) *stasis.Codec { return stasis.New(bson.New(), s) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new(stasistest.TestSecret())
			original := stasistest.SimpleUser{ID: "1", Name: "Alice"}

			data, err := c.Serialize(original)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}

			if _, err := c.Unserialize(data); err != nil {
				t.Fatalf("Unserialize() error: %v", err)
			}

			wrongSecret := tc.new("wrong-secret")
			if _, err := wrongSecret.Unserialize(data); !errors.Is(err, stasis.ErrSignatureMismatch) {
				t.Errorf("Unserialize() with wrong secret error = %v, want ErrSignatureMismatch", err)
			}
		})
	}
}

// --- Cyclic graph round trip across every backend ---
//
// A Go map is the one kind the encoder routes through a placeholder with
// no transformer at all (its built-in classTagArray rule reconstructs the
// *stasis.Array directly), so it's the shape used here to exercise
// self-reference across every backend: the decoder patches a cycle back
// into the very *stasis.Array instance it already returned.

func TestCodec_CyclicGraph_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func() *stasis.Codec
	}{
		{"json", func() *stasis.Codec { return stasis.New(json.New(), "") }},
		{"yaml", func() *stasis.Codec { return stasis.New(yaml.New(), "") }},
		{"msgpack", func() *stasis.Codec { return stasis.New(msgpack.New(), "") }},
		{"xml", func() *stasis.Codec { return stasis.New(xml.New(), "") }},
		{"bson", func() *stasis.Codec { return stasis.New(bson.New(), "") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new()

			self := map[string]any{"label": "loop"}
			self["next"] = self

			data, err := c.Serialize(self)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}

			got, err := c.Unserialize(data)
			if err != nil {
				t.Fatalf("Unserialize() error: %v", err)
			}

			arr, ok := got.(*stasis.Array)
			if !ok {
				t.Fatalf("Unserialize() = %T, want *stasis.Array", got)
			}
			label, _ := arr.Get(stasis.StringKey("label"))
			if label != "loop" {
				t.Errorf("label = %v, want %q", label, "loop")
			}
			next, _ := arr.Get(stasis.StringKey("next"))
			if next != any(arr) {
				t.Error("self-reference did not resolve back to the same *stasis.Array instance")
			}
		})
	}
}

// --- Struct transformer round trip, including shared (non-cyclic) identity ---
//
// A holder of two entries aliasing the same *CyclicNode is, on its own,
// perfectly native-marshalable: no backend here detects or preserves that
// aliasing on a plain Marshal, so Codec.Serialize's fast-path pre-scan
// (hasRepeatedReference) has to catch the repeated pointer itself and
// route the value through the slow path, where CyclicNodeTransformer can
// actually run and the A/B identity survives the round trip. The holder
// is a map, the one container kind whose placeholder decodes without a
// transformer (as a *stasis.Array).

func TestCodec_StructTransformerRoundTrip_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func() *stasis.Codec
	}{
		{"json", func() *stasis.Codec { return stasis.New(json.New(), "", stasistest.CyclicNodeTransformer{}) }},
		{"yaml", func() *stasis.Codec { return stasis.New(yaml.New(), "", stasistest.CyclicNodeTransformer{}) }},
		{"msgpack", func() *stasis.Codec { return stasis.New(msgpack.New(), "", stasistest.CyclicNodeTransformer{}) }},
		{"xml", func() *stasis.Codec { return stasis.New(xml.New(), "", stasistest.CyclicNodeTransformer{}) }},
		{"bson", func() *stasis.Codec { return stasis.New(bson.New(), "", stasistest.CyclicNodeTransformer{}) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new()

			shared := &stasistest.CyclicNode{Label: "shared"}
			holder := map[string]*stasistest.CyclicNode{"A": shared, "B": shared}

			data, err := c.Serialize(holder)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}

			got, err := c.Unserialize(data)
			if err != nil {
				t.Fatalf("Unserialize() error: %v", err)
			}
			arr, ok := got.(*stasis.Array)
			if !ok {
				t.Fatalf("Unserialize() = %T, want *stasis.Array", got)
			}
			a, _ := arr.Get(stasis.StringKey("A"))
			b, _ := arr.Get(stasis.StringKey("B"))
			aNode, ok := a.(*stasistest.CyclicNode)
			if !ok {
				t.Fatalf("A = %T, want *stasistest.CyclicNode", a)
			}
			if aNode.Label != "shared" {
				t.Errorf("A.Label = %q, want %q", aNode.Label, "shared")
			}
			if b != any(aNode) {
				t.Error("A and B should resolve to the same *CyclicNode instance")
			}
		})
	}
}

// --- Transformer round trip across every backend ---

func TestCodec_TransformerRoundTrip_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func() *stasis.Codec
	}{
		{"json", func() *stasis.Codec { return stasis.New(json.New(), "", stasistest.CounterTransformer{}) }},
		{"yaml", func() *stasis.Codec { return stasis.New(yaml.New(), "", stasistest.CounterTransformer{}) }},
		{"msgpack", func() *stasis.Codec { return stasis.New(msgpack.New(), "", stasistest.CounterTransformer{}) }},
		{"xml", func() *stasis.Codec { return stasis.New(xml.New(), "", stasistest.CounterTransformer{}) }},
		{"bson", func() *stasis.Codec { return stasis.New(bson.New(), "", stasistest.CounterTransformer{}) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new()
			fn := stasistest.ClosureOver(42)

			data, err := c.Serialize(fn)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}

			got, err := c.Unserialize(data)
			if err != nil {
				t.Fatalf("Unserialize() error: %v", err)
			}
			restored, ok := got.(func() int)
			if !ok {
				t.Fatalf("Unserialize() = %T, want func() int", got)
			}
			if restored() != 42 {
				t.Errorf("restored() = %d, want 42", restored())
			}
		})
	}
}

// --- Unresolvable placeholder surfaces the right error on every backend ---

func TestCodec_UnresolvablePlaceholder_AllBackends(t *testing.T) {
	cases := []struct {
		name string
		new  func() *stasis.Codec
	}{
		{"json", func() *stasis.Codec { return stasis.New(json.New(), "") }},
		{"yaml", func() *stasis.Codec { return stasis.New(yaml.New(), "") }},
		{"msgpack", func() *stasis.Codec { return stasis.New(msgpack.New(), "") }},
		{"xml", func() *stasis.Codec { return stasis.New(xml.New(), "") }},
		{"bson", func() *stasis.Codec { return stasis.New(bson.New(), "") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.new()
			fn := stasistest.ClosureOver(1)

			data, err := c.Serialize(fn)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}
			if _, err := c.Unserialize(data); !errors.Is(err, stasis.ErrUnresolvablePlaceholder) {
				t.Errorf("Unserialize() error = %v, want ErrUnresolvablePlaceholder", err)
			}
		})
	}
}
