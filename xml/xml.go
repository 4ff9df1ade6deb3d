// Package xml provides an XML native.Codec implementation.
package xml

import (
	"encoding/xml"

	"github.com/zoobzio/stasis/native"
)

// xmlCodec implements native.Codec for XML.
type xmlCodec struct{}

// New returns an XML native.Codec.
func New() native.Codec {
	return &xmlCodec{}
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// Marshal encodes v as XML.
func (c *xmlCodec) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

// Unmarshal decodes XML data into v.
func (c *xmlCodec) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}
