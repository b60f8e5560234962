package ntdf

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// maxCounter is the rotation ceiling from §4.5: force rotation before N would
// exceed 2^23, well inside the wire's 2^24-1 IV-counter ceiling.
const maxCounter = 1 << 23

// KeySize is the AES-256 symmetric key length in bytes.
const KeySize = 32

// Collection is a logical NanoTDF collection: header bytes, its symmetric
// key, an IV counter, and (on the decrypt side) a seen-set rejecting counter
// replay. Created at session start and at every rotation event.
type Collection struct {
	HeaderBytes []byte
	Key         []byte // 32 bytes, AES-256
	counter     uint32 // next IV counter Encrypt assigns, starts at 1; Decrypt does not read it
	aead        cipher.AEAD
	seen        map[uint32]bool // decrypt-side replay guard
}

// NewCollectionKey generates a fresh random AES-256 key for a new collection.
func NewCollectionKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.NewNTDFError("collection.new_key", err)
	}
	return key, nil
}

// NewCollection constructs a Collection bound to headerBytes and key, ready
// to encrypt or decrypt starting at counter 1.
func NewCollection(headerBytes, key []byte) (*Collection, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewNTDFError("collection.new", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, errors.NewNTDFError("collection.new", err)
	}
	return &Collection{
		HeaderBytes: headerBytes,
		Key:         key,
		counter:     1,
		aead:        aead,
		seen:        make(map[uint32]bool),
	}, nil
}

// NeedsRotation reports whether the next encryption would push the counter
// past the forced rotation ceiling.
func (c *Collection) NeedsRotation() bool {
	return c.counter >= maxCounter
}

// iv builds the 12-byte GCM nonce: 9 zero bytes || 3-byte big-endian counter.
func iv(counter uint32) []byte {
	b := make([]byte, 12)
	b[9] = byte(counter >> 16)
	b[10] = byte(counter >> 8)
	b[11] = byte(counter)
	return b
}

// Encrypt seals plaintext as the next item in the collection, returning the
// wire-framed CollectionItem: 3-byte IV counter || 3-byte payload_length ||
// ciphertext || tag. Advances the internal counter.
func (c *Collection) Encrypt(plaintext []byte) ([]byte, error) {
	if c.counter > 0xFFFFFF {
		return nil, errors.NewNTDFError("ntdf.iv_exhausted", fmt.Errorf("counter overflowed 24-bit field"))
	}
	n := c.counter
	sealed := c.aead.Seal(nil, iv(n), plaintext, nil)
	payloadLen := len(sealed)
	if payloadLen > 0xFFFFFF {
		return nil, errors.NewNTDFError("collection.encrypt", fmt.Errorf("payload too large: %d", payloadLen))
	}
	out := make([]byte, 6+payloadLen)
	out[0] = byte(n >> 16)
	out[1] = byte(n >> 8)
	out[2] = byte(n)
	out[3] = byte(payloadLen >> 16)
	out[4] = byte(payloadLen >> 8)
	out[5] = byte(payloadLen)
	copy(out[6:], sealed)
	c.counter++
	return out, nil
}

// Decrypt opens a wire-framed CollectionItem produced by Encrypt under the
// same key. Rejects a counter that has already been seen in this collection.
func (c *Collection) Decrypt(item []byte) ([]byte, error) {
	if len(item) < 6 {
		return nil, errors.NewNTDFError("collection.decrypt", fmt.Errorf("item too short: %d bytes", len(item)))
	}
	n := uint32(item[0])<<16 | uint32(item[1])<<8 | uint32(item[2])
	payloadLen := int(item[3])<<16 | int(item[4])<<8 | int(item[5])
	if 6+payloadLen != len(item) {
		return nil, errors.NewNTDFError("collection.decrypt", fmt.Errorf("payload_length %d does not match item size %d", payloadLen, len(item)-6))
	}
	if c.seen[n] {
		return nil, errors.NewNTDFError("ntdf.counter_reuse", fmt.Errorf("counter %d already seen in this collection", n))
	}
	plaintext, err := c.aead.Open(nil, iv(n), item[6:], nil)
	if err != nil {
		return nil, errors.NewNTDFError("ntdf.decrypt_auth_failed", err)
	}
	c.seen[n] = true
	return plaintext, nil
}
