// Package ntdf implements the NanoTDF "collection" content-encryption layer:
// header framing, per-collection symmetric key lifecycle, counter-derived
// IVs, and AES-256-GCM-128 item encryption/decryption.
package ntdf

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// CipherAES256GCM128 is the only cipher this implementation supports: AES-256
// in GCM mode with a 128-bit (16-byte) authentication tag.
const CipherAES256GCM128 = 0x00

// TagSize is the AES-GCM authentication tag length in bytes.
const TagSize = 16

// Policy is the embeddedPlaintext policy body carried in a NanoTDF header.
type Policy struct {
	UUID string      `json:"uuid"`
	Body PolicyBody  `json:"body"`
}

// PolicyBody holds the data attribute and dissemination lists.
type PolicyBody struct {
	DataAttributes []string `json:"dataAttributes"`
	Dissem         []string `json:"dissem"`
}

// Header is the set of NanoTDF header fields this implementation reads and
// writes: everything needed to locate the KAS, perform the ECDH rewrap, and
// select the cipher. Fields outside this set are out of scope.
type Header struct {
	KASLocator         string
	EphemeralPublicKey []byte // 33-byte compressed P-256 point
	Policy             Policy
	CipherID           byte
	TagSize            byte
}

// EncodeHeader serializes h as:
//
//	u16_be(len(kas_locator)) || kas_locator
//	u8(len(ephemeral_public_key)) || ephemeral_public_key
//	u16_be(len(policy_json)) || policy_json
//	u8(cipher_id) || u8(tag_size)
func EncodeHeader(h *Header) ([]byte, error) {
	if len(h.KASLocator) > 0xFFFF {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("kas_locator too long: %d", len(h.KASLocator)))
	}
	if len(h.EphemeralPublicKey) > 0xFF {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("ephemeral_public_key too long: %d", len(h.EphemeralPublicKey)))
	}
	policyJSON, err := json.Marshal(h.Policy)
	if err != nil {
		return nil, errors.NewNTDFError("ntdf.header_parse", err)
	}
	if len(policyJSON) > 0xFFFF {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("policy too long: %d", len(policyJSON)))
	}

	buf := make([]byte, 0, 8+len(h.KASLocator)+len(h.EphemeralPublicKey)+len(policyJSON))
	buf = appendU16(buf, uint16(len(h.KASLocator)))
	buf = append(buf, h.KASLocator...)
	buf = append(buf, byte(len(h.EphemeralPublicKey)))
	buf = append(buf, h.EphemeralPublicKey...)
	buf = appendU16(buf, uint16(len(policyJSON)))
	buf = append(buf, policyJSON...)
	buf = append(buf, h.CipherID, h.TagSize)
	return buf, nil
}

// ParseHeader reverses EncodeHeader.
func ParseHeader(b []byte) (*Header, error) {
	off := 0
	locLen, err := readU16(b, &off, "kas_locator length")
	if err != nil {
		return nil, err
	}
	if off+int(locLen) > len(b) {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated kas_locator"))
	}
	loc := string(b[off : off+int(locLen)])
	off += int(locLen)

	if off >= len(b) {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated before ephemeral key length"))
	}
	keyLen := int(b[off])
	off++
	if off+keyLen > len(b) {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated ephemeral key"))
	}
	key := append([]byte(nil), b[off:off+keyLen]...)
	off += keyLen

	polLen, err := readU16(b, &off, "policy length")
	if err != nil {
		return nil, err
	}
	if off+int(polLen) > len(b) {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated policy"))
	}
	var policy Policy
	if err := json.Unmarshal(b[off:off+int(polLen)], &policy); err != nil {
		return nil, errors.NewNTDFError("ntdf.header_parse", err)
	}
	off += int(polLen)

	if off+2 > len(b) {
		return nil, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated cipher/tag fields"))
	}
	return &Header{
		KASLocator:         loc,
		EphemeralPublicKey: key,
		Policy:             policy,
		CipherID:           b[off],
		TagSize:            b[off+1],
	}, nil
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func readU16(b []byte, off *int, what string) (uint16, error) {
	if *off+2 > len(b) {
		return 0, errors.NewNTDFError("ntdf.header_parse", fmt.Errorf("truncated %s", what))
	}
	v := binary.BigEndian.Uint16(b[*off : *off+2])
	*off += 2
	return v, nil
}
