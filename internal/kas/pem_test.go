package kas

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"
)

func TestRawSEC1PEM_RoundTrip(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemText := EncodeRawSEC1PEM(priv.PublicKey())
	got, err := DecodeRawSEC1PEM(pemText)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(priv.PublicKey()) {
		t.Fatal("decoded public key does not match original")
	}
}

func TestDecodeRawSEC1PEM_SPKIPrefix(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := priv.PublicKey().Bytes()
	spki := append(make([]byte, 26), raw...)
	got, err := parseSEC1OrSPKI(spki)
	if err != nil {
		t.Fatalf("parse spki-prefixed point: %v", err)
	}
	if !got.Equal(priv.PublicKey()) {
		t.Fatal("spki-prefixed point decoded to the wrong key")
	}
}

func TestDecodeRawSEC1PEM_InvalidLength(t *testing.T) {
	if _, err := parseSEC1OrSPKI([]byte{0x01, 0x02, 0x03}) ; err == nil {
		t.Fatal("expected error for an implausible point length")
	}
}

func TestCompressPoint_RoundTripsThroughCurve(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	compressed := CompressPoint(priv.PublicKey())
	if len(compressed) != 33 {
		t.Fatalf("expected 33-byte compressed point, got %d", len(compressed))
	}
	if compressed[0] != 0x02 && compressed[0] != 0x03 {
		t.Fatalf("unexpected compression prefix byte: 0x%02x", compressed[0])
	}
}
