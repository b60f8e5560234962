package amf

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	amferrors "github.com/rvance/ntdf-rtmp/internal/errors"
)

// markerECMAArray is the AMF0 type marker for ECMA Array (0x08).
const markerECMAArray = 0x08

// ECMAArray is a key->value map (encoded in sorted key order) decoded from / encoded to the AMF0
// ECMA Array marker. It is kept distinct from plain Object (0x03) so a
// round-trip preserves which of the two markers produced it; onMetaData
// (§4.4) is always an ECMAArray.
type ECMAArray map[string]interface{}

// EncodeECMAArray encodes an AMF0 ECMA Array. Wire format:
//
//	0x08 | 4-byte count (informational, emitted as 0 per spec recommendation)
//	     | repeated { 2-byte key length | UTF-8 key | AMF0 value }
//	     | 0x00 0x00 0x09 end sentinel
//
// The count is always emitted as 0: per the source's own inconsistency
// (publisher trusts it, parser does not), this spec recommends emitting 0 and
// relying solely on the end sentinel, which every decoder here does.
func EncodeECMAArray(w io.Writer, m ECMAArray) error {
	var hdr [1 + 4]byte
	hdr[0] = markerECMAArray
	binary.BigEndian.PutUint32(hdr[1:], 0)
	if _, err := w.Write(hdr[:]); err != nil {
		return amferrors.NewAMFError("encode.ecmaarray.header.write", err)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var klen [2]byte
	for _, k := range keys {
		kb := []byte(k)
		if len(kb) > 0xFFFF {
			return amferrors.NewAMFError("encode.ecmaarray.key.length", fmt.Errorf("key '%s' length %d exceeds 65535", k, len(kb)))
		}
		binary.BigEndian.PutUint16(klen[:], uint16(len(kb)))
		if _, err := w.Write(klen[:]); err != nil {
			return amferrors.NewAMFError("encode.ecmaarray.key.length.write", err)
		}
		if _, err := w.Write(kb); err != nil {
			return amferrors.NewAMFError("encode.ecmaarray.key.write", err)
		}
		if err := encodeAny(w, m[k]); err != nil {
			return amferrors.NewAMFError("encode.ecmaarray.value", fmt.Errorf("key '%s': %w", k, err))
		}
	}

	if _, err := w.Write([]byte{0x00, 0x00, markerObjectEnd}); err != nil {
		return amferrors.NewAMFError("encode.ecmaarray.end.write", err)
	}
	return nil
}

// DecodeECMAArray decodes an AMF0 ECMA Array from r. The leading count is
// read and discarded; end-of-array is detected solely via the object-end
// sentinel, never via the count, per §4.1.
func DecodeECMAArray(r io.Reader) (ECMAArray, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return nil, amferrors.NewAMFError("decode.ecmaarray.marker.read", err)
	}
	if marker[0] != markerECMAArray {
		return nil, amferrors.NewAMFError("decode.ecmaarray.marker", fmt.Errorf("expected 0x%02x got 0x%02x", markerECMAArray, marker[0]))
	}
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, amferrors.NewAMFError("decode.ecmaarray.count.read", err)
	}
	_ = binary.BigEndian.Uint32(countBuf[:]) // informational only, not trusted

	out := make(ECMAArray)
	for {
		var klenBuf [2]byte
		if _, err := io.ReadFull(r, klenBuf[:]); err != nil {
			return nil, amferrors.NewAMFError("decode.ecmaarray.key.length.read", err)
		}
		klen := binary.BigEndian.Uint16(klenBuf[:])
		if klen == 0 {
			var end [1]byte
			if _, err := io.ReadFull(r, end[:]); err != nil {
				return nil, amferrors.NewAMFError("decode.ecmaarray.end.read", err)
			}
			if end[0] != markerObjectEnd {
				return nil, amferrors.NewAMFError("decode.ecmaarray.end.marker", fmt.Errorf("expected 0x%02x got 0x%02x", markerObjectEnd, end[0]))
			}
			break
		}
		keyBytes := make([]byte, klen)
		if _, err := io.ReadFull(r, keyBytes); err != nil {
			return nil, amferrors.NewAMFError("decode.ecmaarray.key.read", err)
		}
		key := string(keyBytes)

		var valMarker [1]byte
		if _, err := io.ReadFull(r, valMarker[:]); err != nil {
			return nil, amferrors.NewAMFError("decode.ecmaarray.value.marker.read", err)
		}
		val, err := decodeValueWithMarker(valMarker[0], r)
		if err != nil {
			return nil, amferrors.NewAMFError("decode.ecmaarray.value", fmt.Errorf("key '%s': %w", key, err))
		}
		out[key] = val
	}
	return out, nil
}
