package stasis

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalSerializeStart      = capitan.NewSignal("stasis.serialize.start", "Serialize operation beginning")
	SignalSerializeComplete   = capitan.NewSignal("stasis.serialize.complete", "Serialize operation finished")
	SignalUnserializeStart    = capitan.NewSignal("stasis.unserialize.start", "Unserialize operation beginning")
	SignalUnserializeComplete = capitan.NewSignal("stasis.unserialize.complete", "Unserialize operation finished")
	SignalPlaceholderCreated  = capitan.NewSignal("stasis.placeholder.created", "A value was folded into a placeholder")
	SignalSignatureMismatch   = capitan.NewSignal("stasis.signature.mismatch", "Authentication tag did not match payload")
)

// Keys for typed event data.
var (
	KeyContentType    = capitan.NewStringKey("content_type")
	KeyClassTag       = capitan.NewStringKey("class_tag")
	KeySize           = capitan.NewIntKey("size")
	KeyShortcutCount  = capitan.NewIntKey("shortcut_count")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyError          = capitan.NewErrorKey("error")
)

// emitSerializeStart emits an event when serialization begins.
func emitSerializeStart(contentType string) {
	capitan.Emit(context.Background(), SignalSerializeStart,
		KeyContentType.Field(contentType),
	)
}

// emitSerializeComplete emits an event when serialization finishes.
func emitSerializeComplete(contentType string, size, shortcuts int, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeySize.Field(size),
		KeyShortcutCount.Field(shortcuts),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSerializeComplete, fields...)
	}
}

// emitUnserializeStart emits an event when deserialization begins.
func emitUnserializeStart(contentType string) {
	capitan.Emit(context.Background(), SignalUnserializeStart,
		KeyContentType.Field(contentType),
	)
}

// emitUnserializeComplete emits an event when deserialization finishes.
func emitUnserializeComplete(contentType string, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalUnserializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalUnserializeComplete, fields...)
	}
}

// emitPlaceholderCreated emits an event each time the slow path folds a
// value into a new placeholder.
func emitPlaceholderCreated(classTag string) {
	capitan.Emit(context.Background(), SignalPlaceholderCreated,
		KeyClassTag.Field(classTag),
	)
}

// emitSignatureMismatch emits an event when authentication fails.
func emitSignatureMismatch() {
	capitan.Error(context.Background(), SignalSignatureMismatch)
}
