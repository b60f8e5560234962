package flv

import (
	"bytes"
	"testing"
)

func TestNTDFHeaderFrame_RoundTrip(t *testing.T) {
	header := []byte("pretend-collection-header-bytes")
	body := BuildNTDFHeaderFrame(header)

	if !IsNTDFHeaderFrame(body) {
		t.Fatal("expected BuildNTDFHeaderFrame output to be recognized")
	}
	got, ok := ExtractNTDFHeaderFrame(body)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if !bytes.Equal(got, header) {
		t.Fatalf("header mismatch: got %q want %q", got, header)
	}
}

func TestIsNTDFHeaderFrame_RegularNALUPayload(t *testing.T) {
	tag := &VideoTag{FrameType: FrameTypeKey, CodecID: CodecIDAVC, AVCPacketType: AVCPacketTypeNALU, Payload: MuxNALUs([][]byte{{0x65, 0x01, 0x02, 0x03, 0x04}})}
	body := EncodeVideoTag(tag)
	if IsNTDFHeaderFrame(body) {
		t.Fatal("regular NALU payload must not be misidentified as a header frame")
	}
}

func TestExtractNTDFHeaderFrame_Truncated(t *testing.T) {
	body := BuildNTDFHeaderFrame([]byte("abc"))
	truncated := body[:len(body)-1]
	if _, ok := ExtractNTDFHeaderFrame(truncated); ok {
		t.Fatal("expected extraction to fail on truncated length-prefixed header")
	}
}
