package flv

import (
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// Video frame types (high nibble of VideoTag byte 0).
const (
	FrameTypeKey        = 1
	FrameTypeInter       = 2
	FrameTypeDisposable  = 3
	FrameTypeGenerated   = 4
	FrameTypeCommand     = 5
)

// CodecIDAVC is the low-nibble codec identifier for H.264/AVC.
const CodecIDAVC = 7

// AVC packet types (VideoTag byte 1 when codec == CodecIDAVC).
const (
	AVCPacketTypeSeqHeader   = 0
	AVCPacketTypeNALU        = 1
	AVCPacketTypeEndOfSeq    = 2
)

// VideoTag is a parsed AVC VideoTag body.
type VideoTag struct {
	FrameType         byte
	CodecID           byte
	AVCPacketType     byte
	CompositionTime   int32 // signed 24-bit, sign-extended
	Payload           []byte
}

// EncodeVideoTag serializes a VideoTag body: frame_type|codec_id, avc_packet_type,
// 3-byte big-endian signed composition time, then payload.
func EncodeVideoTag(t *VideoTag) []byte {
	buf := make([]byte, 5+len(t.Payload))
	buf[0] = (t.FrameType << 4) | (t.CodecID & 0x0F)
	buf[1] = t.AVCPacketType
	ct := uint32(t.CompositionTime) & 0xFFFFFF
	buf[2] = byte(ct >> 16)
	buf[3] = byte(ct >> 8)
	buf[4] = byte(ct)
	copy(buf[5:], t.Payload)
	return buf
}

// ParseVideoTag parses a raw VideoTag body into its fields. The payload slice
// aliases body and must be copied by the caller if retained beyond body's
// lifetime.
func ParseVideoTag(body []byte) (*VideoTag, error) {
	if len(body) < 5 {
		return nil, errors.NewFLVError("video_tag.parse", fmt.Errorf("too short: %d bytes", len(body)))
	}
	ct := uint32(body[2])<<16 | uint32(body[3])<<8 | uint32(body[4])
	if ct&0x800000 != 0 {
		ct |= 0xFF000000 // sign-extend 24-bit to 32-bit
	}
	return &VideoTag{
		FrameType:       body[0] >> 4,
		CodecID:         body[0] & 0x0F,
		AVCPacketType:   body[1],
		CompositionTime: int32(ct),
		Payload:         body[5:],
	}, nil
}

// IsKeyframe reports whether body represents a keyframe per §8 invariant 6:
// FLV frame_type == 1 OR any NAL unit in an AVCPacketTypeNALU payload carries
// nal_unit_type == 5 (IDR), even when frame_type says otherwise.
func IsKeyframe(body []byte) bool {
	tag, err := ParseVideoTag(body)
	if err != nil {
		return false
	}
	if tag.FrameType == FrameTypeKey {
		return true
	}
	if tag.CodecID == CodecIDAVC && tag.AVCPacketType == AVCPacketTypeNALU {
		nalus, err := DemuxNALUs(tag.Payload)
		if err == nil && HasIDRNALU(nalus) {
			return true
		}
	}
	return false
}
