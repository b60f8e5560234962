package amf

import (
	"fmt"
	"io"

	amferrors "github.com/rvance/ntdf-rtmp/internal/errors"
)

// markerUndefined is the AMF0 type marker for Undefined (0x06).
const markerUndefined = 0x06

// Undefined is the distinguished sentinel value decoded from / encoded to the
// AMF0 Undefined marker. It is distinct from untyped nil (which represents
// AMF0 Null) so that round-tripping preserves which of the two markers was
// originally used.
type Undefined struct{}

// EncodeUndefined writes an AMF0 Undefined value (single marker byte 0x06) to w.
func EncodeUndefined(w io.Writer) error {
	var b [1]byte
	b[0] = markerUndefined
	if _, err := w.Write(b[:]); err != nil {
		return amferrors.NewAMFError("encode.undefined.write", err)
	}
	return nil
}

// DecodeUndefined reads an AMF0 Undefined value from r.
// Error cases:
//   - Short read of marker -> decode.undefined.marker.read
//   - Marker mismatch -> decode.undefined.marker
func DecodeUndefined(r io.Reader) (interface{}, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, amferrors.NewAMFError("decode.undefined.marker.read", err)
	}
	if b[0] != markerUndefined {
		return nil, amferrors.NewAMFError("decode.undefined.marker", fmt.Errorf("expected 0x%02x got 0x%02x", markerUndefined, b[0]))
	}
	return Undefined{}, nil
}
