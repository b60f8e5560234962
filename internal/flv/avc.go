// Package flv implements the subset of Flash Video tag muxing/demuxing this
// repository reuses inside RTMP media messages: AVCDecoderConfigurationRecord
// framing, length-prefixed NALU concatenation, AAC AudioSpecificConfig, and
// onMetaData script-data encoding.
package flv

import (
	"encoding/binary"
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

// AVCDecoderConfig holds the fields of an AVCDecoderConfigurationRecord.
type AVCDecoderConfig struct {
	Profile         byte
	ProfileCompat   byte
	Level           byte
	NALULengthSize  int // 1, 2, or 4
	SPS             [][]byte
	PPS             [][]byte
}

// EncodeAVCDecoderConfig serializes cfg into an AVCDecoderConfigurationRecord
// per §4.4. NALULengthSize must be 1, 2, or 4.
func EncodeAVCDecoderConfig(cfg *AVCDecoderConfig) ([]byte, error) {
	if cfg.NALULengthSize != 1 && cfg.NALULengthSize != 2 && cfg.NALULengthSize != 4 {
		return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("nalu_length_size must be 1, 2, or 4, got %d", cfg.NALULengthSize))
	}
	if len(cfg.SPS) == 0 {
		return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("at least one SPS required"))
	}
	if len(cfg.SPS) > 0x1F {
		return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("too many SPS: %d", len(cfg.SPS)))
	}
	if len(cfg.PPS) > 0xFF {
		return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("too many PPS: %d", len(cfg.PPS)))
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, 1, cfg.Profile, cfg.ProfileCompat, cfg.Level)
	buf = append(buf, 0xFC|byte(cfg.NALULengthSize-1)&0x03)
	buf = append(buf, 0xE0|byte(len(cfg.SPS))&0x1F)
	for _, sps := range cfg.SPS {
		if len(sps) > 0xFFFF {
			return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("sps too large: %d", len(sps)))
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(sps)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, sps...)
	}
	buf = append(buf, byte(len(cfg.PPS)))
	for _, pps := range cfg.PPS {
		if len(pps) > 0xFFFF {
			return nil, errors.NewFLVError("avc.config.encode", fmt.Errorf("pps too large: %d", len(pps)))
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(pps)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, pps...)
	}
	return buf, nil
}

// ParseAVCDecoderConfig parses an AVCDecoderConfigurationRecord.
func ParseAVCDecoderConfig(b []byte) (*AVCDecoderConfig, error) {
	if len(b) < 6 {
		return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("too short: %d bytes", len(b)))
	}
	cfg := &AVCDecoderConfig{
		Profile:        b[1],
		ProfileCompat:  b[2],
		Level:          b[3],
		NALULengthSize: int(b[4]&0x03) + 1,
	}
	off := 5
	numSPS := int(b[off] & 0x1F)
	off++
	for i := 0; i < numSPS; i++ {
		if off+2 > len(b) {
			return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("truncated sps length at index %d", i))
		}
		l := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if off+l > len(b) {
			return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("truncated sps body at index %d", i))
		}
		cfg.SPS = append(cfg.SPS, append([]byte(nil), b[off:off+l]...))
		off += l
	}
	if off >= len(b) {
		return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("truncated before pps count"))
	}
	numPPS := int(b[off])
	off++
	for i := 0; i < numPPS; i++ {
		if off+2 > len(b) {
			return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("truncated pps length at index %d", i))
		}
		l := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if off+l > len(b) {
			return nil, errors.NewFLVError("avc.config.parse", fmt.Errorf("truncated pps body at index %d", i))
		}
		cfg.PPS = append(cfg.PPS, append([]byte(nil), b[off:off+l]...))
		off += l
	}
	return cfg, nil
}

// nalUnitTypeIDR is the H.264 NAL unit type for an Instantaneous Decoder
// Refresh (IDR) slice, a true keyframe.
const nalUnitTypeIDR = 5

// MuxNALUs concatenates NAL units as (4-byte big-endian length || NAL unit)
// repeated, the body format used inside an AVC NALU video tag.
func MuxNALUs(nalus [][]byte) []byte {
	var out []byte
	for _, n := range nalus {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(n)))
		out = append(out, lenBuf[:]...)
		out = append(out, n...)
	}
	return out
}

// DemuxNALUs reverses MuxNALUs, splitting a length-prefixed NALU stream back
// into individual NAL units.
func DemuxNALUs(body []byte) ([][]byte, error) {
	var out [][]byte
	off := 0
	for off < len(body) {
		if off+4 > len(body) {
			return nil, errors.NewFLVError("avc.nalu.demux", fmt.Errorf("truncated length prefix at offset %d", off))
		}
		l := int(binary.BigEndian.Uint32(body[off : off+4]))
		off += 4
		if l < 0 || off+l > len(body) {
			return nil, errors.NewFLVError("avc.nalu.demux", fmt.Errorf("nalu length %d exceeds remaining body at offset %d", l, off))
		}
		out = append(out, append([]byte(nil), body[off:off+l]...))
		off += l
	}
	return out, nil
}

// HasIDRNALU reports whether any NAL unit in nalus carries nal_unit_type == 5.
func HasIDRNALU(nalus [][]byte) bool {
	for _, n := range nalus {
		if len(n) == 0 {
			continue
		}
		if n[0]&0x1F == nalUnitTypeIDR {
			return true
		}
	}
	return false
}
