package flv

import (
	"bytes"
	"testing"
)

func TestVideoTag_RoundTrip(t *testing.T) {
	tag := &VideoTag{
		FrameType:       FrameTypeInter,
		CodecID:         CodecIDAVC,
		AVCPacketType:   AVCPacketTypeNALU,
		CompositionTime: -1200,
		Payload:         []byte{0xde, 0xad, 0xbe, 0xef},
	}
	body := EncodeVideoTag(tag)
	got, err := ParseVideoTag(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.FrameType != tag.FrameType || got.CodecID != tag.CodecID || got.AVCPacketType != tag.AVCPacketType {
		t.Fatalf("header mismatch: %+v", got)
	}
	if got.CompositionTime != tag.CompositionTime {
		t.Fatalf("composition time mismatch: got %d want %d", got.CompositionTime, tag.CompositionTime)
	}
	if !bytes.Equal(got.Payload, tag.Payload) {
		t.Fatalf("payload mismatch: %x", got.Payload)
	}
}

func TestIsKeyframe_FrameTypeKey(t *testing.T) {
	tag := &VideoTag{FrameType: FrameTypeKey, CodecID: CodecIDAVC, AVCPacketType: AVCPacketTypeNALU, Payload: MuxNALUs([][]byte{{0x61}})}
	if !IsKeyframe(EncodeVideoTag(tag)) {
		t.Fatal("expected frame_type==1 to be a keyframe")
	}
}

func TestIsKeyframe_IDRInInterFrame(t *testing.T) {
	// frame_type says inter, but the NALU payload carries an IDR slice.
	tag := &VideoTag{FrameType: FrameTypeInter, CodecID: CodecIDAVC, AVCPacketType: AVCPacketTypeNALU, Payload: MuxNALUs([][]byte{{0x65, 0x01}})}
	if !IsKeyframe(EncodeVideoTag(tag)) {
		t.Fatal("expected IDR NALU to be detected as keyframe even when frame_type says inter")
	}
}

func TestIsKeyframe_NonKeyframe(t *testing.T) {
	tag := &VideoTag{FrameType: FrameTypeInter, CodecID: CodecIDAVC, AVCPacketType: AVCPacketTypeNALU, Payload: MuxNALUs([][]byte{{0x61, 0x01}})}
	if IsKeyframe(EncodeVideoTag(tag)) {
		t.Fatal("expected non-IDR inter frame to not be a keyframe")
	}
}

func TestParseVideoTag_TooShort(t *testing.T) {
	if _, err := ParseVideoTag([]byte{0x17, 0x01}); err == nil {
		t.Fatal("expected error for truncated video tag")
	}
}
