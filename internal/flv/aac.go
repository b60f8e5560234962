package flv

import (
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// AudioSpecificConfig holds the fields of an MPEG-4 AudioSpecificConfig as
// carried in an AAC sequence header AudioTag.
type AudioSpecificConfig struct {
	ObjectType     byte // audio object type (2 = AAC LC)
	SamplingFreqIx byte // index into the standard sampling frequency table
	ChannelConfig  byte
}

var aacSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350,
}

// SampleRate resolves the sampling frequency index to Hz, or 0 if the index
// is reserved ("explicit frequency") or out of range.
func (c AudioSpecificConfig) SampleRate() int {
	if int(c.SamplingFreqIx) >= len(aacSampleRates) {
		return 0
	}
	return aacSampleRates[c.SamplingFreqIx]
}

// EncodeAudioSpecificConfig packs cfg into its 2-byte bitstream form:
// 5 bits object type, 4 bits sampling frequency index, 4 bits channel
// config, 3 bits padding (frameLengthFlag/dependsOnCoreCoder/extensionFlag,
// all zero).
func EncodeAudioSpecificConfig(cfg *AudioSpecificConfig) []byte {
	b0 := (cfg.ObjectType << 3) | (cfg.SamplingFreqIx >> 1)
	b1 := (cfg.SamplingFreqIx << 7) | (cfg.ChannelConfig << 3)
	return []byte{b0, b1}
}

// ParseAudioSpecificConfig unpacks the first two bytes of an
// AudioSpecificConfig bitstream.
func ParseAudioSpecificConfig(b []byte) (*AudioSpecificConfig, error) {
	if len(b) < 2 {
		return nil, errors.NewFLVError("aac.config.parse", fmt.Errorf("too short: %d bytes", len(b)))
	}
	return &AudioSpecificConfig{
		ObjectType:     b[0] >> 3,
		SamplingFreqIx: ((b[0] & 0x07) << 1) | (b[1] >> 7),
		ChannelConfig:  (b[1] >> 3) & 0x0F,
	}, nil
}
