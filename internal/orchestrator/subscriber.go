package orchestrator

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/flv"
	"github.com/rvance/ntdf-rtmp/internal/kas"
	"github.com/rvance/ntdf-rtmp/internal/logger"
	"github.com/rvance/ntdf-rtmp/internal/ntdf"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/session"
)

// DecodedKind classifies one frame the subscriber hands back to the caller.
type DecodedKind int

const (
	DecodedUnknown DecodedKind = iota
	DecodedVideoSequenceHeader
	DecodedAudioSequenceHeader
	DecodedVideoNALUs
	DecodedAudioRaw
)

func (k DecodedKind) String() string {
	switch k {
	case DecodedVideoSequenceHeader:
		return "video_sequence_header"
	case DecodedAudioSequenceHeader:
		return "audio_sequence_header"
	case DecodedVideoNALUs:
		return "video"
	case DecodedAudioRaw:
		return "audio"
	default:
		return "unknown"
	}
}

// Decoded is one subscriber-classified, decrypted-as-needed media unit.
type Decoded struct {
	Kind      DecodedKind
	Timestamp uint32
	NALUs     [][]byte // DecodedVideoNALUs
	AVCConfig *flv.AVCDecoderConfig
	ASC       *flv.AudioSpecificConfig
	Payload   []byte // DecodedAudioRaw
}

// Subscriber drives the encrypted-subscribe role of §4.7: it owns a
// playback session and the current collection decryptor, replacing the
// latter whenever a new in-band (or onMetaData-carried) header arrives.
type Subscriber struct {
	cfg  Config
	kas  *kas.Client
	sess *session.Session
	log  *slog.Logger

	mu             sync.Mutex
	state          State
	collection     *ntdf.Collection
	lastHeaderHash []byte
}

// NewSubscriber constructs a Subscriber from cfg.
func NewSubscriber(cfg Config) *Subscriber {
	cfg = cfg.withDefaults()
	return &Subscriber{
		cfg: cfg,
		kas: kas.NewClient(kas.Config{
			BaseURL:    cfg.KASURL,
			RewrapPath: cfg.RewrapPath,
			Token:      cfg.KASToken,
			SigningKey: cfg.KASSigningKey,
		}),
		log:   logger.Logger().With("component", "subscriber"),
		state: StateIdle,
	}
}

// State returns the subscriber's current observer state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscriber) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Connect opens the RTMP play session and transitions to waiting_for_header
// until the first collection header is observed, per §4.7's connect().
func (s *Subscriber) Connect() error {
	sess, err := session.New(joinStreamKey(s.cfg.RTMPURL, s.cfg.StreamKey))
	if err != nil {
		return err
	}
	if err := sess.Dial(); err != nil {
		return err
	}
	if err := sess.Play(); err != nil {
		return err
	}
	s.sess = sess
	s.setState(StateWaitingForHeader)
	return nil
}

// Next blocks for the next inbound frame, classifies it, and applies the
// NanoTDF decryptor as needed, per §4.7's subscriber classification rules.
func (s *Subscriber) Next(ctx context.Context) (Decoded, error) {
	frame, err := s.sess.ReadFrame()
	if err != nil {
		return Decoded{}, err
	}
	switch frame.Kind {
	case session.FrameVideo:
		return s.handleVideo(ctx, frame)
	case session.FrameAudio:
		return s.handleAudio(frame)
	case session.FrameData:
		return s.handleData(ctx, frame)
	default:
		return Decoded{Kind: DecodedUnknown, Timestamp: frame.Timestamp}, nil
	}
}

func (s *Subscriber) handleVideo(ctx context.Context, frame session.Frame) (Decoded, error) {
	body := frame.Payload

	if flv.IsNTDFHeaderFrame(body) {
		headerBytes, ok := flv.ExtractNTDFHeaderFrame(body)
		if !ok {
			return Decoded{}, rerrors.NewFLVError("subscriber.header_frame", errTruncatedHeaderFrame)
		}
		if err := s.adoptHeader(ctx, headerBytes); err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: DecodedUnknown, Timestamp: frame.Timestamp}, nil
	}

	tag, err := flv.ParseVideoTag(body)
	if err != nil {
		return Decoded{}, err
	}
	if tag.CodecID == flv.CodecIDAVC && tag.AVCPacketType == flv.AVCPacketTypeSeqHeader {
		cfg, err := flv.ParseAVCDecoderConfig(tag.Payload)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: DecodedVideoSequenceHeader, Timestamp: frame.Timestamp, AVCConfig: cfg}, nil
	}

	col := s.currentCollection()
	if col == nil {
		return Decoded{}, rerrors.NewNTDFError("subscriber.no_collection", errNoCollection)
	}
	plaintext, err := col.Decrypt(tag.Payload)
	if err != nil {
		return Decoded{}, err
	}
	nalus, err := flv.DemuxNALUs(plaintext)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Kind: DecodedVideoNALUs, Timestamp: frame.Timestamp, NALUs: nalus}, nil
}

func (s *Subscriber) handleAudio(frame session.Frame) (Decoded, error) {
	tag, err := flv.ParseAudioTag(frame.Payload)
	if err != nil {
		return Decoded{}, err
	}
	if tag.SoundFormat == flv.SoundFormatAAC && tag.AACPacketType == flv.AACPacketTypeSeqHeader {
		asc, err := flv.ParseAudioSpecificConfig(tag.Payload)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: DecodedAudioSequenceHeader, Timestamp: frame.Timestamp, ASC: asc}, nil
	}

	col := s.currentCollection()
	if col == nil {
		return Decoded{}, rerrors.NewNTDFError("subscriber.no_collection", errNoCollection)
	}
	plaintext, err := col.Decrypt(tag.Payload)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Kind: DecodedAudioRaw, Timestamp: frame.Timestamp, Payload: plaintext}, nil
}

// handleData inspects an AMF0 data message for onMetaData's ntdf_header
// field, the alternate path to the collection header per §4.7.
func (s *Subscriber) handleData(ctx context.Context, frame session.Frame) (Decoded, error) {
	fields, err := flv.ParseOnMetaData(frame.Payload)
	if err != nil {
		return Decoded{Kind: DecodedUnknown, Timestamp: frame.Timestamp}, nil
	}
	b64, ok := fields["ntdf_header"].(string)
	if !ok || b64 == "" {
		return Decoded{Kind: DecodedUnknown, Timestamp: frame.Timestamp}, nil
	}
	headerBytes, err := decodeB64(b64)
	if err != nil {
		return Decoded{}, rerrors.NewNTDFError("ntdf.header_parse", err)
	}
	if err := s.adoptHeader(ctx, headerBytes); err != nil {
		return Decoded{}, err
	}
	return Decoded{Kind: DecodedUnknown, Timestamp: frame.Timestamp}, nil
}

// adoptHeader rewraps headerBytes via KAS and replaces the current
// collection decryptor, ignoring the call if headerBytes is identical to the
// currently adopted header, per §4.7.
func (s *Subscriber) adoptHeader(ctx context.Context, headerBytes []byte) error {
	s.mu.Lock()
	if bytes.Equal(s.lastHeaderHash, headerBytes) {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	header, err := ntdf.ParseHeader(headerBytes)
	if err != nil {
		return err
	}
	key, err := s.kas.Rewrap(ctx, header)
	if err != nil {
		return err
	}
	col, err := ntdf.NewCollection(headerBytes, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.collection = col
	s.lastHeaderHash = headerBytes
	first := s.state == StateWaitingForHeader
	s.mu.Unlock()

	if first {
		s.setState(StatePlaying)
	}
	s.log.Info("collection header adopted")
	return nil
}

func (s *Subscriber) currentCollection() *ntdf.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection
}

// Disconnect closes the session and wipes the current collection's key.
func (s *Subscriber) Disconnect() error {
	var err error
	if s.sess != nil {
		err = s.sess.Close()
	}
	s.mu.Lock()
	if s.collection != nil {
		wipe(s.collection.Key)
	}
	s.collection = nil
	s.mu.Unlock()
	s.setState(StateIdle)
	return err
}
