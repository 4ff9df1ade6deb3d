package stasis

// decodeState owns the bookkeeping tables for a single Unserialize call:
// the shortcut list read from the envelope, and the pending-callback /
// in-progress tables used to break cycles that pass through placeholders.
type decodeState struct {
	registry  *Registry
	shortcuts []*Placeholder
	pending   map[int][]func(any)
	resolving map[int]bool
}

func newDecodeState(registry *Registry, shortcuts []*Placeholder) *decodeState {
	return &decodeState{
		registry:  registry,
		shortcuts: shortcuts,
		pending:   make(map[int][]func(any)),
		resolving: make(map[int]bool),
	}
}

// resolveNode reconstructs the live value a Node describes, blocking until
// every reachable placeholder not already in progress is resolved.
func (d *decodeState) resolveNode(n Node) (any, error) {
	switch n.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return n.Bool, nil
	case KindInt:
		return n.Int, nil
	case KindUint:
		return n.Uint, nil
	case KindFloat:
		return n.Float, nil
	case KindString:
		return n.Str, nil
	case KindHost:
		return n.Host, nil
	case KindArray:
		return d.resolveArray(n.Arr)
	case KindRef:
		return d.resolvePlaceholderAt(n.Ref)
	default:
		return nil, newNativeCodecFailureError("unmarshal", errUnsupportedKind(0))
	}
}

// resolveInto resolves n and calls setter with the result. If n is a
// reference to a placeholder currently mid-resolution (i.e. we looped back
// to it through a cycle), the callback is deferred instead of blocking —
// this is what lets cycles through placeholders terminate.
func (d *decodeState) resolveInto(n Node, setter func(any)) error {
	if n.Kind == KindRef && d.resolving[n.Ref] {
		d.pending[n.Ref] = append(d.pending[n.Ref], setter)
		return nil
	}
	v, err := d.resolveNode(n)
	if err != nil {
		return err
	}
	setter(v)
	return nil
}

// resolveArray reconstructs an Array, resolving every entry. Entries that
// reference an in-progress placeholder are patched in later via drain.
func (d *decodeState) resolveArray(src *Array) (any, error) {
	out := NewArray()
	out.Entries = make([]Entry, src.Len())
	for i, entry := range src.Entries {
		out.Entries[i].Key = entry.Key
		idx := i
		err := d.resolveInto(entry.Value, func(v any) {
			out.Entries[idx].Value = Node{Kind: KindHost, Host: v}
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolvePlaceholderAt resolves shortcuts[idx], the core algorithm spec
// §4.5 describes: idempotent on repeat visits, resolves the payload before
// consulting the default/transformer rules, then drains any
// callbacks that were deferred while this placeholder was in progress.
func (d *decodeState) resolvePlaceholderAt(idx int) (any, error) {
	ph := d.shortcuts[idx]
	if ph.HasInstance() {
		instance, _ := ph.GetInstance()
		return instance, nil
	}

	d.resolving[idx] = true

	live, err := d.resolveNode(ph.Payload)
	if err != nil {
		return nil, err
	}
	ph.Live = live

	var instance any
	switch {
	case ph.ClassTag == classTagArray:
		instance = live
	default:
		if t := d.registry.ResolverFor(ph); t != nil {
			instance, err = t.Resolve(ph)
			if err != nil {
				return nil, newTransformerFailureError("resolve", ph.ClassTag, err)
			}
		} else {
			return nil, newUnresolvablePlaceholderError(ph.ClassTag)
		}
	}

	ph.SetInstance(instance)
	d.drain(idx, instance)
	delete(d.resolving, idx)
	return instance, nil
}

// drain fires every callback that deferred while idx was mid-resolution.
func (d *decodeState) drain(idx int, instance any) {
	callbacks := d.pending[idx]
	delete(d.pending, idx)
	for _, cb := range callbacks {
		cb(instance)
	}
}
