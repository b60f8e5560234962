package ntdf

import (
	"bytes"
	"testing"
)

func sampleHeader() *Header {
	return &Header{
		KASLocator:         "https://kas.example.com",
		EphemeralPublicKey: bytes.Repeat([]byte{0x02}, 33),
		Policy:             NewPolicy([]string{"https://example.com/attr/classification/value/confidential"}, []string{"viewer@example.com"}),
		CipherID:           CipherAES256GCM128,
		TagSize:            TagSize,
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	h := sampleHeader()
	b, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseHeader(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.KASLocator != h.KASLocator {
		t.Fatalf("kas locator mismatch: got %q want %q", got.KASLocator, h.KASLocator)
	}
	if !bytes.Equal(got.EphemeralPublicKey, h.EphemeralPublicKey) {
		t.Fatalf("ephemeral key mismatch")
	}
	if got.Policy.UUID != h.Policy.UUID {
		t.Fatalf("policy uuid mismatch")
	}
	if len(got.Policy.Body.DataAttributes) != 1 || got.Policy.Body.DataAttributes[0] != h.Policy.Body.DataAttributes[0] {
		t.Fatalf("data attributes mismatch: %+v", got.Policy.Body)
	}
	if got.CipherID != h.CipherID || got.TagSize != h.TagSize {
		t.Fatalf("cipher/tag mismatch: %+v", got)
	}
}

func TestParseHeader_Truncated(t *testing.T) {
	h := sampleHeader()
	b, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for cut := 0; cut < len(b); cut += 3 {
		if _, err := ParseHeader(b[:cut]); err == nil {
			t.Fatalf("expected error parsing truncated header at %d bytes", cut)
		}
	}
}

func TestNewPolicy_NilSlicesBecomeEmpty(t *testing.T) {
	p := NewPolicy(nil, nil)
	if p.Body.DataAttributes == nil || p.Body.Dissem == nil {
		t.Fatalf("expected nil inputs to become empty slices, got %+v", p.Body)
	}
	if p.UUID == "" {
		t.Fatal("expected a non-empty policy uuid")
	}
}
