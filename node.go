package stasis

// Kind discriminates the shape a Node carries. Go has no dynamic typing at
// the wire level, so every value walked by the encoder is tagged explicitly
// with the kind of payload it holds.
type Kind uint8

const (
	// KindNull marks an absent or nil value.
	KindNull Kind = iota
	// KindBool marks a boolean leaf.
	KindBool
	// KindInt marks a signed integer leaf.
	KindInt
	// KindUint marks an unsigned integer leaf.
	KindUint
	// KindFloat marks a floating point leaf.
	KindFloat
	// KindString marks a string leaf.
	KindString
	// KindArray marks an ordered keyed collection; see Array.
	KindArray
	// KindRef marks a reference into the enclosing Envelope's Shortcuts list.
	KindRef
	// KindHost marks an opaque value the native codec consumes as-is,
	// without further decomposition.
	KindHost
)

// Node is the tagged-sum wire value every encoded slot becomes. Struct tags
// for every wired native backend (msgpack, json, yaml, xml, bson) are kept
// in lockstep so the same Node marshals identically regardless of which
// native.Codec a Codec is configured with.
type Node struct {
	Kind  Kind    `json:"k" yaml:"k" msgpack:"k" xml:"k" bson:"k"`
	Bool  bool    `json:"b,omitempty" yaml:"b,omitempty" msgpack:"b,omitempty" xml:"b,omitempty" bson:"b,omitempty"`
	Int   int64   `json:"i,omitempty" yaml:"i,omitempty" msgpack:"i,omitempty" xml:"i,omitempty" bson:"i,omitempty"`
	Uint  uint64  `json:"u,omitempty" yaml:"u,omitempty" msgpack:"u,omitempty" xml:"u,omitempty" bson:"u,omitempty"`
	Float float64 `json:"f,omitempty" yaml:"f,omitempty" msgpack:"f,omitempty" xml:"f,omitempty" bson:"f,omitempty"`
	Str   string  `json:"s,omitempty" yaml:"s,omitempty" msgpack:"s,omitempty" xml:"s,omitempty" bson:"s,omitempty"`
	Arr   *Array  `json:"a,omitempty" yaml:"a,omitempty" msgpack:"a,omitempty" xml:"a,omitempty" bson:"a,omitempty"`
	Ref   int     `json:"r,omitempty" yaml:"r,omitempty" msgpack:"r,omitempty" xml:"r,omitempty" bson:"r,omitempty"`
	Host  any     `json:"h,omitempty" yaml:"h,omitempty" msgpack:"h,omitempty" xml:"h,omitempty" bson:"h,omitempty"`
}

// Key is an Array entry's key: either an integer index or a string name.
// Go maps can't natively hold this mixed-kind key the way spec's origin
// arrays can, so Array carries an explicit entry list instead of a map.
type Key struct {
	IsString bool   `json:"s,omitempty" yaml:"s,omitempty" msgpack:"s,omitempty" xml:"s,omitempty" bson:"s,omitempty"`
	Int      int64  `json:"i,omitempty" yaml:"i,omitempty" msgpack:"i,omitempty" xml:"i,omitempty" bson:"i,omitempty"`
	Str      string `json:"str,omitempty" yaml:"str,omitempty" msgpack:"str,omitempty" xml:"str,omitempty" bson:"str,omitempty"`
}

// StringKey builds a string Key.
func StringKey(s string) Key { return Key{IsString: true, Str: s} }

// IntKey builds an integer Key.
func IntKey(i int64) Key { return Key{Int: i} }

// Entry pairs a Key with its Node value, preserving insertion order.
type Entry struct {
	Key   Key  `json:"key" yaml:"key" msgpack:"key" xml:"key" bson:"key"`
	Value Node `json:"v" yaml:"v" msgpack:"v" xml:"v" bson:"v"`
}

// Array is an ordered keyed collection: integer-or-string keys, insertion
// order preserved. It is what Go's own slices, fixed arrays, maps, and
// structs all decompose into on the slow path, and is the concrete
// realization of the origin system's array value.
type Array struct {
	Entries []Entry `json:"e" yaml:"e" msgpack:"e" xml:"e" bson:"e"`
}

// NewArray returns an empty Array.
func NewArray() *Array { return &Array{} }

// Append adds an entry with the next sequential integer key.
func (a *Array) Append(v Node) {
	a.Entries = append(a.Entries, Entry{Key: IntKey(int64(len(a.Entries))), Value: v})
}

// Set adds an entry under an explicit key.
func (a *Array) Set(k Key, v Node) {
	a.Entries = append(a.Entries, Entry{Key: k, Value: v})
}

// Len returns the number of entries.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Entries)
}

// Range calls fn for every entry in insertion order.
func (a *Array) Range(fn func(k Key, v Node)) {
	if a == nil {
		return
	}
	for _, e := range a.Entries {
		fn(e.Key, e.Value)
	}
}

// Get returns the live value stored for key by decodeState.resolveArray
// (a KindHost node wrapping the resolved value) and whether it was found.
func (a *Array) Get(k Key) (any, bool) {
	if a == nil {
		return nil, false
	}
	for _, e := range a.Entries {
		if e.Key == k {
			return e.Value.Host, true
		}
	}
	return nil, false
}

// AsSlice returns the array's values in order as a []any, for callers that
// know the array is dense. Panics-free even if it isn't: keys are ignored
// and the values come back in entry order.
func (a *Array) AsSlice() []any {
	if a == nil {
		return nil
	}
	out := make([]any, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Value.Host
	}
	return out
}

// AsMap returns the array's string-keyed entries as a map[string]any,
// discarding any integer-keyed entries.
func (a *Array) AsMap() map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a.Entries))
	for _, e := range a.Entries {
		if e.Key.IsString {
			out[e.Key.Str] = e.Value.Host
		}
	}
	return out
}

// IsDense reports whether the array's keys are exactly the integers
// 0..Len()-1 in order, i.e. it decodes naturally to a Go slice.
func (a *Array) IsDense() bool {
	if a == nil {
		return true
	}
	for i, e := range a.Entries {
		if e.Key.IsString || e.Key.Int != int64(i) {
			return false
		}
	}
	return true
}
