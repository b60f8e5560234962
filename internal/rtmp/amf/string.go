package amf

import (
	"encoding/binary"
	"fmt"
	"io"

	amferrors "github.com/rvance/ntdf-rtmp/internal/errors"
)

// markerString is the AMF0 type marker for String (0x02).
// markerLongString is the AMF0 type marker for LongString (0x0C), used for
// payloads whose UTF-8 byte length exceeds the 65535 the short form can hold.
const (
	markerString     = 0x02
	markerLongString = 0x0C
)

// EncodeString writes an AMF0 String to w.
// Wire format: 0x02 | 2-byte big-endian length | UTF-8 bytes.
// Strings whose byte length exceeds 65535 are automatically upgraded to the
// LongString encoding (0x0C | 4-byte big-endian length | UTF-8 bytes) per
// §4.1 — "payloads >65535 bytes use LongString. Encoder MUST auto-upgrade."
func EncodeString(w io.Writer, s string) error {
	b := []byte(s)
	if len(b) > 0xFFFF {
		return encodeLongString(w, b)
	}
	var hdr [1 + 2]byte
	hdr[0] = markerString
	binary.BigEndian.PutUint16(hdr[1:], uint16(len(b)))
	if _, err := w.Write(hdr[:]); err != nil {
		return amferrors.NewAMFError("encode.string.write.header", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return amferrors.NewAMFError("encode.string.write.body", err)
	}
	return nil
}

func encodeLongString(w io.Writer, b []byte) error {
	if uint64(len(b)) > 0xFFFFFFFF {
		return amferrors.NewAMFError("encode.longstring.length", fmt.Errorf("string length %d exceeds uint32 range", len(b)))
	}
	var hdr [1 + 4]byte
	hdr[0] = markerLongString
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(b)))
	if _, err := w.Write(hdr[:]); err != nil {
		return amferrors.NewAMFError("encode.longstring.write.header", err)
	}
	if _, err := w.Write(b); err != nil {
		return amferrors.NewAMFError("encode.longstring.write.body", err)
	}
	return nil
}

// DecodeString reads an AMF0 String from r. It accepts either the short
// String marker (0x02) or the LongString marker (0x0C) so callers do not need
// to know ahead of time which form a given producer chose.
// Error cases:
//   - Marker mismatch -> decode.string.marker
//   - Short reads -> decode.string.marker.read / decode.string.length.read / decode.string.read
func DecodeString(r io.Reader) (string, error) {
	var m [1]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return "", amferrors.NewAMFError("decode.string.marker.read", err)
	}
	switch m[0] {
	case markerString:
		var ln [2]byte
		if _, err := io.ReadFull(r, ln[:]); err != nil {
			return "", amferrors.NewAMFError("decode.string.length.read", err)
		}
		l := binary.BigEndian.Uint16(ln[:])
		if l == 0 {
			return "", nil
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", amferrors.NewAMFError("decode.string.read", err)
		}
		return string(buf), nil
	case markerLongString:
		var ln [4]byte
		if _, err := io.ReadFull(r, ln[:]); err != nil {
			return "", amferrors.NewAMFError("decode.longstring.length.read", err)
		}
		l := binary.BigEndian.Uint32(ln[:])
		if l == 0 {
			return "", nil
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", amferrors.NewAMFError("decode.longstring.read", err)
		}
		return string(buf), nil
	default:
		return "", amferrors.NewAMFError("decode.string.marker", fmt.Errorf("expected 0x%02x or 0x%02x got 0x%02x", markerString, markerLongString, m[0]))
	}
}
