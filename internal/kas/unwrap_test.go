package kas

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/rvance/ntdf-rtmp/internal/ntdf"
)

func TestWrapUnwrapKey_RoundTrip(t *testing.T) {
	serverPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("server keygen: %v", err)
	}
	clientPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("client keygen: %v", err)
	}
	collectionKey := bytes.Repeat([]byte{0x42}, ntdf.KeySize)

	wrapped, err := WrapKeyForServer(serverPriv, clientPriv.PublicKey(), collectionKey)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	got, err := unwrapKey(clientPriv, serverPriv.PublicKey(), wrapped)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if !bytes.Equal(got, collectionKey) {
		t.Fatalf("key mismatch: got %x want %x", got, collectionKey)
	}
}

func TestUnwrapKey_RejectsTamperedWrapping(t *testing.T) {
	serverPriv, _ := ecdh.P256().GenerateKey(rand.Reader)
	clientPriv, _ := ecdh.P256().GenerateKey(rand.Reader)
	wrapped, err := WrapKeyForServer(serverPriv, clientPriv.PublicKey(), bytes.Repeat([]byte{0x01}, ntdf.KeySize))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	tampered := append([]byte(nil), wrapped...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := unwrapKey(clientPriv, serverPriv.PublicKey(), tampered); err == nil {
		t.Fatal("expected tampered wrapped key to fail authentication")
	}
}

func TestUnwrapKey_RejectsWrongPrivateKey(t *testing.T) {
	serverPriv, _ := ecdh.P256().GenerateKey(rand.Reader)
	clientPriv, _ := ecdh.P256().GenerateKey(rand.Reader)
	wrapped, err := WrapKeyForServer(serverPriv, clientPriv.PublicKey(), bytes.Repeat([]byte{0x01}, ntdf.KeySize))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	otherPriv, _ := ecdh.P256().GenerateKey(rand.Reader)
	if _, err := unwrapKey(otherPriv, serverPriv.PublicKey(), wrapped); err == nil {
		t.Fatal("expected unwrap with an unrelated private key to fail")
	}
}
