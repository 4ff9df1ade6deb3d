package stasis

import (
	"reflect"
	"strconv"
)

// fieldSnapshot carries a struct's exported fields or a map's entries from
// placeholder construction into the recursive encode walk, without
// re-triggering the object-like dispatch that built it in the first place.
type fieldSnapshot struct {
	entries []snapshotEntry
}

type snapshotEntry struct {
	key   Key
	value any
}

// snapshotStruct captures a struct's exported fields in declaration order.
// Unexported fields are skipped: reflect.Value.Interface() panics on them,
// and there would be nothing a transformer-free decode could repopulate
// them with on the other side anyway.
func snapshotStruct(rv reflect.Value) *fieldSnapshot {
	t := rv.Type()
	snap := &fieldSnapshot{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		snap.entries = append(snap.entries, snapshotEntry{
			key:   StringKey(f.Name),
			value: rv.Field(i).Interface(),
		})
	}
	return snap
}

// snapshotMap captures a map's entries, sorted by the string form of their
// key for determinism — Go maps have no intrinsic iteration order, so two
// encodes of the same map would otherwise produce different byte strings.
// Callers who need genuine insertion order should build a *Array directly
// rather than relying on default map snapshotting.
func snapshotMap(rv reflect.Value) *fieldSnapshot {
	snap := &fieldSnapshot{}
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		for k.Kind() == reflect.Interface {
			k = k.Elem()
		}
		var key Key
		if k.Kind() == reflect.String {
			key = StringKey(k.String())
		} else {
			key = StringKey(formatMapKey(k))
		}
		snap.entries = append(snap.entries, snapshotEntry{
			key:   key,
			value: iter.Value().Interface(),
		})
	}
	sortSnapshotEntries(snap.entries)
	return snap
}

func sortSnapshotEntries(entries []snapshotEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].key.Str > entries[j].key.Str; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func formatMapKey(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	default:
		if s, ok := rv.Interface().(interface{ String() string }); ok {
			return s.String()
		}
		return rv.Type().String()
	}
}

// snapshotForMutationCheck captures what a reference-aliasable value holds
// right now, by value, so a later revisit can be compared against what it
// held at first visit. reflect.DeepEqual's Ptr and Map cases return true as
// soon as the two sides share the same address — deepValueEqual checks
// v1.Pointer() == v2.Pointer() before ever inspecting the pointee — so
// storing rv.Interface() itself for a Ptr or Map source would always take
// that shortcut on revisit, since refID (also rv.Pointer()) guarantees the
// address never changes between visits. Dereferencing (Ptr) or snapshotting
// the entries (Map) before storing means the comparison is actually over
// field/entry values, not addresses.
func snapshotForMutationCheck(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return snapshotForMutationCheck(rv.Elem())
	case reflect.Struct:
		return snapshotStruct(rv)
	case reflect.Map:
		return snapshotMap(rv)
	default:
		// Func, Chan, UnsafePointer: opaque, nothing to snapshot but the
		// reference itself.
		return rv.Interface()
	}
}

// encodeState owns the bookkeeping tables for a single Serialize call.
// Tables are reset at the start and end of every call (including on error
// paths) and are never shared across calls or goroutines: a Codec is not
// reentrant for concurrent Serialize/Unserialize calls on the same
// instance.
type encodeState struct {
	registry  *Registry
	sources   map[uintptr]any  // refId -> observed value at first visit
	targets   map[uintptr]Node // refId -> produced KindRef node
	shortcuts []*Placeholder
}

func newEncodeState(registry *Registry) *encodeState {
	return &encodeState{
		registry:  registry,
		sources:   make(map[uintptr]any),
		targets:   make(map[uintptr]Node),
	}
}

// encodeSlot is the top-level dispatch for a single value: scalars and
// nils are copied directly, snapshots recurse without re-triggering
// object-like dispatch, slices/arrays are the array case, and everything
// else routes through the reference-aliasable or bare-struct object case.
func (e *encodeState) encodeSlot(rv reflect.Value) (Node, error) {
	if !rv.IsValid() {
		return Node{Kind: KindNull}, nil
	}
	if snap, ok := rv.Interface().(*fieldSnapshot); ok {
		return e.encodeSnapshot(snap)
	}

	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Node{Kind: KindNull}, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Node{Kind: KindNull}, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Node{Kind: KindBool, Bool: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Node{Kind: KindInt, Int: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Node{Kind: KindUint, Uint: rv.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		return Node{Kind: KindFloat, Float: rv.Float()}, nil
	case reflect.String:
		return Node{Kind: KindString, Str: rv.String()}, nil
	case reflect.Slice:
		if rv.IsNil() {
			return Node{Kind: KindNull}, nil
		}
		return e.encodeArrayBody(rv)
	case reflect.Array:
		return e.encodeArrayBody(rv)
	case reflect.Ptr, reflect.UnsafePointer, reflect.Func, reflect.Chan, reflect.Map:
		if rv.IsNil() {
			return Node{Kind: KindNull}, nil
		}
		return e.encodeObjectLike(rv)
	case reflect.Struct:
		return e.encodeBareStruct(rv)
	default:
		return Node{}, newNativeCodecFailureError("marshal", errUnsupportedKind(rv.Kind()))
	}
}

// encodeSnapshot recurses over a struct/map field snapshot captured by
// newDefaultPlaceholder, producing a KindArray node keyed by field/entry
// name.
func (e *encodeState) encodeSnapshot(snap *fieldSnapshot) (Node, error) {
	arr := NewArray()
	for _, entry := range snap.entries {
		child, err := e.encodeSlot(reflect.ValueOf(entry.value))
		if err != nil {
			return Node{}, err
		}
		arr.Set(entry.key, child)
	}
	return Node{Kind: KindArray, Arr: arr}, nil
}

// encodeArrayBody decomposes a Slice or fixed Array element-wise. Go
// slices and arrays cannot self-alias without an intervening pointer or
// map, so — unlike encodeObjectLike — this path does no refId bookkeeping.
func (e *encodeState) encodeArrayBody(rv reflect.Value) (Node, error) {
	arr := NewArray()
	for i := 0; i < rv.Len(); i++ {
		child, err := e.encodeSlot(rv.Index(i))
		if err != nil {
			return Node{}, err
		}
		arr.Append(child)
	}
	return Node{Kind: KindArray, Arr: arr}, nil
}

// encodeBareStruct handles a struct value reached directly, not through a
// pointer. A bare Go struct is copied by value and can't be aliased
// elsewhere, so there is no identity to track: every occurrence produces
// an independent placeholder, matching spec's notion
// that object identity only matters for aliasable storage.
func (e *encodeState) encodeBareStruct(rv reflect.Value) (Node, error) {
	ph, live, err := e.buildPlaceholder(rv)
	if err != nil {
		return Node{}, err
	}
	idx := len(e.shortcuts)
	e.shortcuts = append(e.shortcuts, ph)
	emitPlaceholderCreated(ph.ClassTag)

	payload, err := e.encodeSlot(reflect.ValueOf(live))
	if err != nil {
		return Node{}, err
	}
	ph.Payload = payload
	return Node{Kind: KindRef, Ref: idx}, nil
}

// encodeObjectLike handles every reference-aliasable kind: Ptr, Map, Func,
// Chan, UnsafePointer. This is where the mutation-detection check, the
// shortcut registration, and the mandatory "register before recursing"
// cycle-breaking order all live.
func (e *encodeState) encodeObjectLike(rv reflect.Value) (Node, error) {
	refID := rv.Pointer()

	if prior, seen := e.sources[refID]; seen {
		if !reflect.DeepEqual(prior, snapshotForMutationCheck(rv)) {
			return Node{}, newSourceMutatedError(rv.Type().String())
		}
		return e.targets[refID], nil
	}
	e.sources[refID] = snapshotForMutationCheck(rv)

	ph, live, err := e.buildPlaceholder(rv)
	if err != nil {
		return Node{}, err
	}

	idx := len(e.shortcuts)
	e.shortcuts = append(e.shortcuts, ph)
	emitPlaceholderCreated(ph.ClassTag)

	ref := Node{Kind: KindRef, Ref: idx}
	// Register the target BEFORE recursing into the payload: this is what
	// lets a cycle reached through this placeholder terminate instead of
	// looping forever.
	e.targets[refID] = ref

	payload, err := e.encodeSlot(reflect.ValueOf(live))
	if err != nil {
		return Node{}, err
	}
	ph.Payload = payload
	return ref, nil
}

// buildPlaceholder decides what a reference-aliasable or bare-struct slot
// becomes: a transformer-produced placeholder if one claims it, or the
// default field/entry snapshot otherwise.
//
// Unlike the root Serialize fast path, this never speculatively attempts a
// whole-value nativeCodec.Marshal on the node itself: a self-referential
// value reached mid-walk would hand the native backend a cyclic graph
// through a reflection path that doesn't know about this package's refId
// bookkeeping, and most backends aren't guarded against that the way
// encoding/json's depth counter is. The root fast path already captures the
// case where the whole value is natively serializable; nodes that reach
// here always get the full snapshot treatment.
func (e *encodeState) buildPlaceholder(rv reflect.Value) (ph *Placeholder, live any, err error) {
	value := rv.Interface()

	if t := e.registry.TransformerFor(value); t != nil {
		built, terr := t.Transform(value)
		if terr != nil {
			return nil, nil, newTransformerFailureError("transform", rv.Type().String(), terr)
		}
		return built, built.Live, nil
	}

	def := newDefaultPlaceholder(rv)
	return def, def.Live, nil
}

// hasRepeatedReference reports whether v's reachable graph visits the same
// pointer, map, channel, func, or unsafe pointer more than once — whether
// through a genuine cycle (the repeat is still an ancestor on the current
// path) or through two disjoint branches sharing one reference (e.g. a
// struct's A and B fields both pointing at the same node). Either shape
// makes a whole-value hand-off to the native codec unsafe to attempt:
//
//   - A true cycle risks an unbounded recursive marshal: most
//     reflection-based marshalers have no cycle guard of their own and
//     would recurse until the process's stack overflows.
//   - A repeated-but-acyclic reference marshals fine, but every native
//     backend here (msgpack/json/yaml/xml/bson) serializes it as two
//     independent copies — silently losing the aliasing that
//     encodeObjectLike's own refId tracking is what preserves on the slow
//     path. encodeObjectLike treats any revisit of the same refID as the
//     same logical reference regardless of how it was reached, so the
//     pre-scan has to match that: unlike a plain "currently visiting" set,
//     seen entries are never removed on unwind.
func hasRepeatedReference(rv reflect.Value, seen map[uintptr]bool) bool {
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return false
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return false
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return true
		}
		seen[ptr] = true

		switch rv.Kind() {
		case reflect.Ptr:
			return hasRepeatedReference(rv.Elem(), seen)
		case reflect.Map:
			iter := rv.MapRange()
			for iter.Next() {
				if hasRepeatedReference(iter.Value(), seen) {
					return true
				}
			}
			return false
		default:
			// Func, Chan, UnsafePointer: opaque, nothing further to walk.
			return false
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if hasRepeatedReference(rv.Field(i), seen) {
				return true
			}
		}
		return false
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if hasRepeatedReference(rv.Index(i), seen) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func errUnsupportedKind(k reflect.Kind) error {
	return &unsupportedKindError{k}
}

type unsupportedKindError struct{ kind reflect.Kind }

func (e *unsupportedKindError) Error() string {
	return "stasis: unsupported reflect kind " + e.kind.String()
}

