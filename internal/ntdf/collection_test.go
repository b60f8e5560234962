package ntdf

import (
	"bytes"
	"testing"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	key, err := NewCollectionKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	col, err := NewCollection([]byte("header"), key)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return col
}

func TestCollection_EncryptDecrypt_RoundTrip(t *testing.T) {
	enc := newTestCollection(t)
	dec, err := NewCollection(enc.HeaderBytes, enc.Key)
	if err != nil {
		t.Fatalf("new decrypt collection: %v", err)
	}

	plaintext := []byte("hello nanotdf")
	item, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := dec.Decrypt(item)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestCollection_Encrypt_CounterMonotonic(t *testing.T) {
	col := newTestCollection(t)
	var items [][]byte
	for i := 0; i < 5; i++ {
		item, err := col.Encrypt([]byte("frame"))
		if err != nil {
			t.Fatalf("encrypt %d: %v", i, err)
		}
		items = append(items, item)
	}
	for i, item := range items {
		n := uint32(item[0])<<16 | uint32(item[1])<<8 | uint32(item[2])
		if n != uint32(i+1) {
			t.Fatalf("item %d: counter got %d want %d", i, n, i+1)
		}
	}
}

func TestCollection_Decrypt_RejectsCounterReplay(t *testing.T) {
	enc := newTestCollection(t)
	dec, _ := NewCollection(enc.HeaderBytes, enc.Key)
	item, err := enc.Encrypt([]byte("frame"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := dec.Decrypt(item); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}
	if _, err := dec.Decrypt(item); err == nil {
		t.Fatal("expected second decrypt of the same counter to be rejected as replay")
	}
}

func TestCollection_Decrypt_RejectsTamperedCiphertext(t *testing.T) {
	enc := newTestCollection(t)
	dec, _ := NewCollection(enc.HeaderBytes, enc.Key)
	item, err := enc.Encrypt([]byte("frame"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	tampered := append([]byte(nil), item...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := dec.Decrypt(tampered); err == nil {
		t.Fatal("expected tampered ciphertext to fail authentication")
	}
}

func TestCollection_Decrypt_RejectsCrossCollectionKey(t *testing.T) {
	enc := newTestCollection(t)
	item, err := enc.Encrypt([]byte("frame"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	other := newTestCollection(t)
	if _, err := other.Decrypt(item); err == nil {
		t.Fatal("expected decrypt under an unrelated collection key to fail")
	}
}

func TestCollection_NeedsRotation(t *testing.T) {
	col := newTestCollection(t)
	if col.NeedsRotation() {
		t.Fatal("a fresh collection should not need rotation")
	}
	col.counter = maxCounter
	if !col.NeedsRotation() {
		t.Fatal("expected NeedsRotation to report true at the ceiling")
	}
}

func TestShouldRotate(t *testing.T) {
	col := newTestCollection(t)
	if !col.ShouldRotate(true) {
		t.Fatal("expected keyframe to always force rotation")
	}
	if col.ShouldRotate(false) {
		t.Fatal("a fresh collection should not need rotation on a non-keyframe")
	}
	col.counter = maxCounter
	if !col.ShouldRotate(false) {
		t.Fatal("expected counter ceiling to force rotation even on a non-keyframe")
	}
}
