package stasis

import "reflect"

// classTagArray is the built-in class tag carrying a default, transformer-
// free reconstruction rule for map-shaped values. This is a Go-specific
// generalization documented in DESIGN.md: Go's native codecs can't preserve
// shared identity for a map on their own, so the encoder must still route
// it through a Placeholder even when no transformer claims it.
const classTagArray = "$array"

// Placeholder is the natively-serializable stand-in for a value the slow
// path could not pass through whole. It carries a class tag identifying
// what produced it and a payload the decoder walks to reconstruct the
// original shape.
//
// Go's static typing splits spec's single dynamically-typed payload field
// into two: Payload is the wire-shaped Node that actually marshals, and
// Live is the in-progress live value transformers read from and write to
// during construction and resolution. Live is never marshaled.
type Placeholder struct {
	ClassTag string `json:"classTag" yaml:"classTag" msgpack:"classTag" xml:"classTag" bson:"classTag"`
	Payload  Node   `json:"payload" yaml:"payload" msgpack:"payload" xml:"payload" bson:"payload"`

	Live any `json:"-" yaml:"-" msgpack:"-" xml:"-" bson:"-"`

	instance    any
	hasInstance bool
}

// NewPlaceholder returns an empty placeholder tagged with classTag. Callers
// (typically Transformer.Transform implementations) populate Live and let
// the encoder fold it into Payload.
func NewPlaceholder(classTag string) *Placeholder {
	return &Placeholder{ClassTag: classTag}
}

// NewPlaceholderFrom builds the default, transformer-free placeholder for
// a live value: a field snapshot for structs, an entry snapshot for maps,
// or an empty, unresolvable payload for opaque kinds (functions, channels,
// unsafe pointers) that have nothing to introspect.
func NewPlaceholderFrom(liveValue any) *Placeholder {
	return newDefaultPlaceholder(reflect.ValueOf(liveValue))
}

// HasInstance reports whether a live instance has been attached, either by
// a prior resolution or by SetInstance.
func (p *Placeholder) HasInstance() bool {
	return p.hasInstance
}

// SetInstance attaches the resolved live instance. Subsequent calls to
// GetInstance return it without re-resolving.
func (p *Placeholder) SetInstance(v any) {
	p.instance = v
	p.hasInstance = true
}

// GetInstance returns the attached instance, or an UnresolvablePlaceholder
// error if none was ever attached and no default reconstruction rule
// applies to this placeholder's class tag.
func (p *Placeholder) GetInstance() (any, error) {
	if p.hasInstance {
		return p.instance, nil
	}
	return nil, newUnresolvablePlaceholderError(p.ClassTag)
}

func newDefaultPlaceholder(rv reflect.Value) *Placeholder {
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return &Placeholder{ClassTag: "$nil"}
	}

	typeName := rv.Type().String()

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return &Placeholder{ClassTag: typeName}
		}
		return newDefaultPlaceholder(rv.Elem())
	case reflect.Struct:
		ph := &Placeholder{ClassTag: typeName}
		ph.Live = snapshotStruct(rv)
		return ph
	case reflect.Map:
		ph := &Placeholder{ClassTag: classTagArray}
		ph.Live = snapshotMap(rv)
		return ph
	default:
		// Func, Chan, UnsafePointer and anything else with no field
		// structure to snapshot: only a registered Transformer can
		// resolve this placeholder.
		return &Placeholder{ClassTag: typeName}
	}
}
