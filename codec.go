// Package stasis folds arbitrary, possibly cyclic Go value graphs —
// including values common native serializers refuse, such as closures,
// channels and unsafe pointers — into a self-describing byte string, and
// faithfully reconstructs them. Output integrity is optionally protected
// by a keyed HMAC-SHA-256 authentication tag.
package stasis

import (
	"reflect"
	"time"

	"github.com/zoobzio/stasis/native"
)

// Codec serializes and deserializes value graphs against a configured
// native.Codec backend, an optional HMAC secret, and an ordered set of
// Transformers for values the backend can't marshal on its own.
//
// A Codec is not safe for concurrent Serialize/Unserialize calls on the
// same instance; independent Codec instances share no state and may be
// used concurrently.
type Codec struct {
	secret   string
	native   native.Codec
	registry *Registry
}

// New returns a Codec backed by nc. Pass a non-empty secret to require and
// verify an HMAC-SHA-256 tag on every payload; pass "" for none.
//
// stasis's core package never imports a concrete native.Codec
// implementation itself — each backend (msgpack, json, yaml, xml, bson)
// is its own module that imports stasis, not the other way around — so
// callers always construct the backend explicitly, e.g.
// stasis.New(msgpack.New(), secret).
func New(nc native.Codec, secret string, transformers ...Transformer) *Codec {
	r := NewRegistry()
	for _, t := range transformers {
		r.Add(t)
	}
	return &Codec{secret: secret, native: nc, registry: r}
}

// AddTransformer appends a Transformer to the codec's registry. Added
// transformers take effect for every subsequent Serialize/Unserialize
// call; earlier additions continue to shadow later ones for overlapping
// claims.
func (c *Codec) AddTransformer(t Transformer) {
	c.registry.Add(t)
}

// Serialize encodes value into a self-describing, optionally authenticated
// byte string.
//
// The fast path attempts to hand value to the native backend whole; if
// that succeeds the result is returned directly (framed, if a secret is
// configured) with no envelope overhead at all. That attempt is skipped
// whenever value's graph revisits the same pointer, map, channel, or func
// more than once — whether through a genuine cycle or through two
// branches sharing one reference — since neither shape round-trips
// correctly through a plain native Marshal: a cycle risks an unbounded
// recursive marshal, and a shared-but-acyclic reference would silently
// marshal as two independent copies. In either case, or whenever the
// native backend refuses outright, the slow path walks value, replacing
// every reference-aliasable slot with a placeholder, and wraps the result
// in an Envelope.
func (c *Codec) Serialize(value any) ([]byte, error) {
	start := time.Now()
	emitSerializeStart(c.native.ContentType())

	payload, shortcuts, err := c.serialize(value)
	emitSerializeComplete(c.native.ContentType(), len(payload), shortcuts, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return frame(c.secret, payload), nil
}

func (c *Codec) serialize(value any) ([]byte, int, error) {
	// hasRepeatedReference is a cheap, non-mutating pre-scan that only ever
	// skips the fast-path attempt below — it never changes the outcome for
	// a value with no repeated reference at all.
	if !hasRepeatedReference(reflect.ValueOf(value), make(map[uintptr]bool)) {
		if payload, err := c.native.Marshal(value); err == nil {
			return payload, 0, nil
		}
	}

	state := newEncodeState(c.registry)
	root, err := state.encodeSlot(reflect.ValueOf(value))
	if err != nil {
		return nil, 0, err
	}
	if len(state.shortcuts) == 0 && isLeafKind(root.Kind) {
		return nil, 0, newIllegalLeafEncodedError()
	}

	env := &Envelope{Value: root, Shortcuts: state.shortcuts}
	payload, err := c.native.Marshal(env)
	if err != nil {
		return nil, 0, newNativeCodecFailureError("marshal", err)
	}
	return payload, len(state.shortcuts), nil
}

// Unserialize reverses Serialize: it verifies and strips any
// authentication tag, then attempts to unmarshal an Envelope; when the
// payload isn't envelope-shaped (or has zero shortcuts — an Envelope is
// never emitted with none), it falls back to decoding the payload
// directly as the fast path would have produced it.
func (c *Codec) Unserialize(data []byte) (any, error) {
	start := time.Now()
	emitUnserializeStart(c.native.ContentType())

	v, err := c.unserialize(data)
	emitUnserializeComplete(c.native.ContentType(), time.Since(start), err)
	return v, err
}

func (c *Codec) unserialize(data []byte) (any, error) {
	payload, err := unframe(c.secret, data)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if uerr := c.native.Unmarshal(payload, &env); uerr == nil && len(env.Shortcuts) > 0 {
		state := newDecodeState(c.registry, env.Shortcuts)
		// Resolve every shortcut in order first, then the root value.
		for i := range env.Shortcuts {
			if _, err := state.resolvePlaceholderAt(i); err != nil {
				return nil, err
			}
		}
		return state.resolveNode(env.Value)
	}

	var v any
	if err := c.native.Unmarshal(payload, &v); err != nil {
		return nil, newNativeCodecFailureError("unmarshal", err)
	}
	return v, nil
}

func isLeafKind(k Kind) bool {
	switch k {
	case KindBool, KindInt, KindUint, KindFloat, KindString:
		return true
	default:
		return false
	}
}
