package stasis

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrSignatureMismatch indicates the authentication tag on a
	// serialized payload did not match its contents.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrSourceMutatedDuringEncode indicates a value changed between the
	// encoder's first and second visit to the same reference-aliasable
	// slot.
	ErrSourceMutatedDuringEncode = errors.New("source mutated during encode")

	// ErrIllegalLeafEncoded indicates the slow-path walker was entered at
	// a scalar root, which should never happen since scalars always
	// succeed on the fast path.
	ErrIllegalLeafEncoded = errors.New("illegal leaf encoded")

	// ErrUnresolvablePlaceholder indicates a placeholder had no attached
	// instance, no matching transformer, and no default reconstruction
	// rule.
	ErrUnresolvablePlaceholder = errors.New("unresolvable placeholder")

	// ErrTransformerFailure indicates a registered Transformer returned an
	// error from Transform or Resolve.
	ErrTransformerFailure = errors.New("transformer failure")

	// ErrNativeCodecFailure indicates the configured native.Codec failed
	// to marshal or unmarshal a value outside of the expected fast-path
	// escalation case.
	ErrNativeCodecFailure = errors.New("native codec failure")
)

// SignatureMismatchError wraps ErrSignatureMismatch.
type SignatureMismatchError struct {
	Err error
}

func (e *SignatureMismatchError) Error() string { return e.Err.Error() }
func (e *SignatureMismatchError) Unwrap() error { return e.Err }

// SourceMutatedError wraps ErrSourceMutatedDuringEncode with the class tag
// of the value that changed.
type SourceMutatedError struct {
	Err      error
	ClassTag string
}

func (e *SourceMutatedError) Error() string {
	if e.ClassTag != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.ClassTag)
	}
	return e.Err.Error()
}
func (e *SourceMutatedError) Unwrap() error { return e.Err }

// IllegalLeafEncodedError wraps ErrIllegalLeafEncoded.
type IllegalLeafEncodedError struct {
	Err error
}

func (e *IllegalLeafEncodedError) Error() string { return e.Err.Error() }
func (e *IllegalLeafEncodedError) Unwrap() error { return e.Err }

// UnresolvablePlaceholderError wraps ErrUnresolvablePlaceholder with the
// class tag that could not be resolved.
type UnresolvablePlaceholderError struct {
	Err      error
	ClassTag string
}

func (e *UnresolvablePlaceholderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.ClassTag)
}
func (e *UnresolvablePlaceholderError) Unwrap() error { return e.Err }

// TransformerFailureError wraps ErrTransformerFailure with the operation
// (transform or resolve), class tag, and the transformer's own error.
type TransformerFailureError struct {
	Err      error
	Op       string
	ClassTag string
	Cause    error
}

func (e *TransformerFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Err.Error(), e.Op, e.ClassTag, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", e.Err.Error(), e.Op, e.ClassTag)
}
func (e *TransformerFailureError) Unwrap() error { return e.Err }

// NativeCodecFailureError wraps ErrNativeCodecFailure with the operation
// (marshal or unmarshal) and the underlying codec's own error.
type NativeCodecFailureError struct {
	Err   error
	Op    string
	Cause error
}

func (e *NativeCodecFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Err.Error(), e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Op)
}
func (e *NativeCodecFailureError) Unwrap() error { return e.Err }

func newSignatureMismatchError() error {
	return &SignatureMismatchError{Err: ErrSignatureMismatch}
}

func newSourceMutatedError(classTag string) error {
	return &SourceMutatedError{Err: ErrSourceMutatedDuringEncode, ClassTag: classTag}
}

func newIllegalLeafEncodedError() error {
	return &IllegalLeafEncodedError{Err: ErrIllegalLeafEncoded}
}

func newUnresolvablePlaceholderError(classTag string) error {
	return &UnresolvablePlaceholderError{Err: ErrUnresolvablePlaceholder, ClassTag: classTag}
}

func newTransformerFailureError(op, classTag string, cause error) error {
	return &TransformerFailureError{Err: ErrTransformerFailure, Op: op, ClassTag: classTag, Cause: cause}
}

func newNativeCodecFailureError(op string, cause error) error {
	return &NativeCodecFailureError{Err: ErrNativeCodecFailure, Op: op, Cause: cause}
}
