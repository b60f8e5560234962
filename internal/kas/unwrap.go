package kas

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// hkdfSalt is the fixed salt this implementation applies to the ECDH shared
// secret before deriving the KEK, matching the KAS reference derivation per
// §4.6 step 5 ("implementation-specified salt (matching the KAS
// derivation)").
var hkdfSalt = []byte("ntdf-rtmp-kas-rewrap-v1")

const hkdfInfo = "ntdf-rtmp kek"

// unwrapKey derives the KEK via ECDH(clientPriv, sessionPub) + HKDF-SHA256,
// then AES-GCM-unwraps wrappedKey (GCM nonce || ciphertext || 16-byte tag) to
// recover the collection key.
func unwrapKey(clientPriv *ecdh.PrivateKey, sessionPub *ecdh.PublicKey, wrappedKey []byte) ([]byte, error) {
	shared, err := clientPriv.ECDH(sessionPub)
	if err != nil {
		return nil, errors.NewKASError("rewrap.ecdh", 0, err)
	}

	kdf := hkdf.New(sha256.New, shared, hkdfSalt, []byte(hkdfInfo))
	kek := make([]byte, 32)
	if _, err := io.ReadFull(kdf, kek); err != nil {
		return nil, errors.NewKASError("rewrap.hkdf", 0, err)
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.NewKASError("rewrap.unwrap", 0, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewKASError("rewrap.unwrap", 0, err)
	}
	nonceSize := aead.NonceSize()
	if len(wrappedKey) < nonceSize {
		return nil, errors.NewKASError("kas.unwrap_auth_failed", 0, fmt.Errorf("wrapped key shorter than GCM nonce"))
	}
	nonce, ciphertext := wrappedKey[:nonceSize], wrappedKey[nonceSize:]
	key, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.NewKASError("kas.unwrap_auth_failed", 0, err)
	}
	return key, nil
}

// WrapKeyForServer performs the KAS-side half of the rewrap exchange: given
// the server's ephemeral private key and the client's public key, it derives
// the same KEK as unwrapKey and seals key for the response. Exported for
// test fixtures that stand in for a real KAS server.
func WrapKeyForServer(serverPriv *ecdh.PrivateKey, clientPub *ecdh.PublicKey, key []byte) ([]byte, error) {
	shared, err := serverPriv.ECDH(clientPub)
	if err != nil {
		return nil, errors.NewKASError("rewrap.ecdh", 0, err)
	}
	kdf := hkdf.New(sha256.New, shared, hkdfSalt, []byte(hkdfInfo))
	kek := make([]byte, 32)
	if _, err := io.ReadFull(kdf, kek); err != nil {
		return nil, errors.NewKASError("rewrap.hkdf", 0, err)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errors.NewKASError("rewrap.wrap", 0, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewKASError("rewrap.wrap", 0, err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.NewKASError("rewrap.wrap", 0, err)
	}
	return aead.Seal(nonce, nonce, key, nil), nil
}
