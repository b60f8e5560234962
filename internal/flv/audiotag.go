package flv

import (
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// SoundFormatAAC is the FLV SoundFormat value for AAC audio.
const SoundFormatAAC = 10

// AAC packet types (AudioTag byte 1 when SoundFormat == SoundFormatAAC).
const (
	AACPacketTypeSeqHeader = 0
	AACPacketTypeRaw       = 1
)

// AudioTag is a parsed AAC AudioTag body.
type AudioTag struct {
	SoundFormat   byte
	SoundRate     byte // 0=5.5kHz 1=11kHz 2=22kHz 3=44kHz, meaningless for AAC (always 3)
	SoundSize     byte // 0=8-bit 1=16-bit
	SoundType     byte // 0=mono 1=stereo
	AACPacketType byte
	Payload       []byte
}

// EncodeAudioTag serializes an AudioTag body: SoundFormat<<4|SoundRate<<2|SoundSize<<1|SoundType,
// then (for AAC) the AACPacketType byte, then payload.
func EncodeAudioTag(t *AudioTag) []byte {
	b0 := (t.SoundFormat << 4) | (t.SoundRate << 2) | (t.SoundSize << 1) | t.SoundType
	if t.SoundFormat != SoundFormatAAC {
		buf := make([]byte, 1+len(t.Payload))
		buf[0] = b0
		copy(buf[1:], t.Payload)
		return buf
	}
	buf := make([]byte, 2+len(t.Payload))
	buf[0] = b0
	buf[1] = t.AACPacketType
	copy(buf[2:], t.Payload)
	return buf
}

// ParseAudioTag parses a raw AudioTag body. The payload slice aliases body.
func ParseAudioTag(body []byte) (*AudioTag, error) {
	if len(body) < 1 {
		return nil, errors.NewFLVError("audio_tag.parse", fmt.Errorf("empty body"))
	}
	t := &AudioTag{
		SoundFormat: body[0] >> 4,
		SoundRate:   (body[0] >> 2) & 0x03,
		SoundSize:   (body[0] >> 1) & 0x01,
		SoundType:   body[0] & 0x01,
	}
	if t.SoundFormat != SoundFormatAAC {
		t.Payload = body[1:]
		return t, nil
	}
	if len(body) < 2 {
		return nil, errors.NewFLVError("audio_tag.parse", fmt.Errorf("truncated aac tag"))
	}
	t.AACPacketType = body[1]
	t.Payload = body[2:]
	return t, nil
}
