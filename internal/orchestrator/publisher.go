package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rvance/ntdf-rtmp/internal/flv"
	"github.com/rvance/ntdf-rtmp/internal/kas"
	"github.com/rvance/ntdf-rtmp/internal/logger"
	"github.com/rvance/ntdf-rtmp/internal/ntdf"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/session"
)

// VideoFrame is one encoder-produced AVC access unit handed to the
// publisher for encryption and send.
type VideoFrame struct {
	Timestamp   uint32
	IsKeyframe  bool
	NALUs       [][]byte
}

// AudioFrame is one encoder-produced AAC frame handed to the publisher.
type AudioFrame struct {
	Timestamp uint32
	Payload   []byte
}

// Publisher drives the encrypted-publish role of §4.7: it owns a session, a
// KAS client, and the current collection, rotating the latter before every
// keyframe.
type Publisher struct {
	cfg Config
	kas *kas.Client
	sess *session.Session
	log  *slog.Logger

	mu         sync.Mutex
	state      State
	kasPubKey  []byte // 33-byte compressed, embedded in every header
	collection *ntdf.Collection
}

// NewPublisher constructs a Publisher from cfg. Call Initialize then Connect
// before sending frames.
func NewPublisher(cfg Config) *Publisher {
	cfg = cfg.withDefaults()
	return &Publisher{
		cfg: cfg,
		kas: kas.NewClient(kas.Config{
			BaseURL:    cfg.KASURL,
			RewrapPath: cfg.RewrapPath,
			Token:      cfg.KASToken,
			SigningKey: cfg.KASSigningKey,
		}),
		log:   logger.Logger().With("component", "publisher"),
		state: StateIdle,
	}
}

// State returns the publisher's current observer state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Publisher) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Initialize fetches the KAS public key and mints the first collection, per
// §4.7's initialize(policy?) step.
func (p *Publisher) Initialize(ctx context.Context) error {
	p.setState(StateInitializing)
	pub, err := p.kas.FetchKASPublicKey(ctx)
	if err != nil {
		p.setState(StateError)
		return err
	}
	p.mu.Lock()
	p.kasPubKey = kas.CompressPoint(pub)
	p.mu.Unlock()

	col, err := p.newCollection()
	if err != nil {
		p.setState(StateError)
		return err
	}
	p.mu.Lock()
	p.collection = col
	p.mu.Unlock()
	p.setState(StateReady)
	return nil
}

// newCollection mints a fresh collection key and header, embedding the KAS
// public key fetched in Initialize so a subscriber's KAS rewrap can recover
// the key this collection was minted with.
func (p *Publisher) newCollection() (*ntdf.Collection, error) {
	key, err := ntdf.NewCollectionKey()
	if err != nil {
		return nil, err
	}
	header := &ntdf.Header{
		KASLocator:         p.cfg.KASURL,
		EphemeralPublicKey: p.kasPubKey,
		Policy:             ntdf.NewPolicy(p.cfg.DataAttributes, p.cfg.Dissem),
		CipherID:           ntdf.CipherAES256GCM128,
		TagSize:            ntdf.TagSize,
	}
	headerBytes, err := ntdf.EncodeHeader(header)
	if err != nil {
		return nil, err
	}
	return ntdf.NewCollection(headerBytes, key)
}

// Connect opens the RTMP publish session, sends onMetaData carrying the
// current collection's header, and sends the in-band NTDF header frame, per
// §4.7's connect() step.
func (p *Publisher) Connect() error {
	sess, err := session.New(joinStreamKey(p.cfg.RTMPURL, p.cfg.StreamKey))
	if err != nil {
		return err
	}
	if err := sess.Dial(); err != nil {
		return err
	}
	if err := sess.Publish(); err != nil {
		return err
	}
	p.mu.Lock()
	p.sess = sess
	p.mu.Unlock()

	if err := p.sendMetadataAndHeader(); err != nil {
		return err
	}
	p.setState(StateStreaming)
	return nil
}

func (p *Publisher) currentCollection() *ntdf.Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collection
}

// sendMetadataAndHeader announces the current collection's header via
// onMetaData's ntdf_header field, then the in-band NTDF header frame, in
// that order, per the rotation-policy ordering in §4.5.
func (p *Publisher) sendMetadataAndHeader() error {
	col := p.currentCollection()
	fields := map[string]interface{}{
		"width":         float64(p.cfg.Width),
		"height":        float64(p.cfg.Height),
		"framerate":     p.cfg.Framerate,
		"videodatarate": float64(p.cfg.VideoBitrate) / 1000,
		"audiodatarate": float64(p.cfg.AudioBitrate) / 1000,
		"videocodecid":  float64(flv.CodecIDAVC),
		"audiocodecid":  float64(flv.SoundFormatAAC),
	}
	body, err := flv.BuildOnMetaData(fields, col.HeaderBytes)
	if err != nil {
		return err
	}
	if err := p.sess.SendDataFrame(0, body); err != nil {
		return err
	}
	headerFrame := flv.BuildNTDFHeaderFrame(col.HeaderBytes)
	return p.sess.SendVideo(0, headerFrame)
}

// SendVideoSequenceHeader sends the unencrypted AVCDecoderConfigurationRecord
// for sps/pps at timestamp 0, per §4.7.
func (p *Publisher) SendVideoSequenceHeader(sps, pps [][]byte) error {
	cfg := &flv.AVCDecoderConfig{
		Profile:        sps[0][1],
		ProfileCompat:  sps[0][2],
		Level:          sps[0][3],
		NALULengthSize: 4,
		SPS:            sps,
		PPS:            pps,
	}
	cfgBytes, err := flv.EncodeAVCDecoderConfig(cfg)
	if err != nil {
		return err
	}
	tag := &flv.VideoTag{
		FrameType:     flv.FrameTypeKey,
		CodecID:       flv.CodecIDAVC,
		AVCPacketType: flv.AVCPacketTypeSeqHeader,
		Payload:       cfgBytes,
	}
	return p.sess.SendVideo(0, flv.EncodeVideoTag(tag))
}

// SendAudioSequenceHeader sends the unencrypted AudioSpecificConfig at
// timestamp 0, per §4.7.
func (p *Publisher) SendAudioSequenceHeader(asc *flv.AudioSpecificConfig) error {
	tag := &flv.AudioTag{
		SoundFormat:   flv.SoundFormatAAC,
		SoundRate:     3,
		SoundSize:     1,
		SoundType:     1,
		AACPacketType: flv.AACPacketTypeSeqHeader,
		Payload:       flv.EncodeAudioSpecificConfig(asc),
	}
	return p.sess.SendAudio(0, flv.EncodeAudioTag(tag))
}

// SendVideo encrypts frame's NALUs as one collection item and sends it as an
// AVC NALU video message, rotating the collection first when frame is a
// keyframe, per §4.5's rotation policy and §4.7's send_video.
func (p *Publisher) SendVideo(frame VideoFrame) error {
	if frame.IsKeyframe {
		if err := p.rotate(); err != nil {
			return err
		}
	} else if p.currentCollection().NeedsRotation() {
		if err := p.rotate(); err != nil {
			return err
		}
	}

	plaintext := flv.MuxNALUs(frame.NALUs)
	item, err := p.currentCollection().Encrypt(plaintext)
	if err != nil {
		return err
	}
	frameType := byte(flv.FrameTypeInter)
	if frame.IsKeyframe {
		frameType = flv.FrameTypeKey
	}
	tag := &flv.VideoTag{
		FrameType:     frameType,
		CodecID:       flv.CodecIDAVC,
		AVCPacketType: flv.AVCPacketTypeNALU,
		Payload:       item,
	}
	encoded := flv.EncodeVideoTag(tag)
	logger.WithFrameMeta(p.log, "video", len(encoded), frame.IsKeyframe, frame.Timestamp).Debug("sending video frame")
	return p.sess.SendVideo(frame.Timestamp, encoded)
}

// SendAudio encrypts frame.Payload as one collection item and sends it as a
// raw AAC audio message, per §4.7's send_audio.
func (p *Publisher) SendAudio(frame AudioFrame) error {
	item, err := p.currentCollection().Encrypt(frame.Payload)
	if err != nil {
		return err
	}
	tag := &flv.AudioTag{
		SoundFormat:   flv.SoundFormatAAC,
		SoundRate:     3,
		SoundSize:     1,
		SoundType:     1,
		AACPacketType: flv.AACPacketTypeRaw,
		Payload:       item,
	}
	encoded := flv.EncodeAudioTag(tag)
	logger.WithFrameMeta(p.log, "audio", len(encoded), false, frame.Timestamp).Debug("sending audio frame")
	return p.sess.SendAudio(frame.Timestamp, encoded)
}

// rotate mints a fresh collection and announces it before returning, so the
// caller's subsequent keyframe send is always under the new key, per §4.5
// step 1-3.
func (p *Publisher) rotate() error {
	col, err := p.newCollection()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.collection = col
	p.mu.Unlock()
	p.log.Info("collection rotated")
	return p.sendMetadataAndHeader()
}

// Disconnect performs graceful teardown per §4.3/§5: FCUnpublish,
// deleteStream, close the connection, and wipe the collection key.
func (p *Publisher) Disconnect() error {
	var err error
	if p.sess != nil {
		_ = p.sess.FCUnpublish()
		_ = p.sess.DeleteStream()
		err = p.sess.Close()
	}
	p.mu.Lock()
	if p.collection != nil {
		wipe(p.collection.Key)
	}
	p.collection = nil
	p.mu.Unlock()
	p.setState(StateIdle)
	return err
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
