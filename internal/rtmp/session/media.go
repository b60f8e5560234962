package session

import (
	"fmt"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/chunk"
)

// audioCSID/videoCSID/dataCSID are the chunk stream IDs this session uses for
// each message class.
const (
	audioCSID = 6
	videoCSID = 7
	dataCSID  = 8
)

// audioMessageTypeID/videoMessageTypeID/dataMessageTypeID are the RTMP
// message type IDs for audio, video, and AMF0 data (script-data) messages.
const (
	audioMessageTypeID = 8
	videoMessageTypeID = 9
	dataMessageTypeID  = 18
)

// SendAudio writes a raw FLV audio tag body as one RTMP audio message,
// serialized against every other send on this session.
func (s *Session) SendAudio(ts uint32, data []byte) error {
	if len(data) == 0 {
		return rerrors.NewProtocolError("session.send_audio", fmt.Errorf("empty audio payload"))
	}
	msg := &chunk.Message{
		CSID:            audioCSID,
		TypeID:          audioMessageTypeID,
		MessageStreamID: s.StreamID(),
		Timestamp:       ts,
		MessageLength:   uint32(len(data)),
		Payload:         data,
	}
	if err := s.send(msg); err != nil {
		return rerrors.NewIOError("session.send_audio", err)
	}
	return nil
}

// SendVideo writes a raw FLV video tag body as one RTMP video message,
// serialized against every other send on this session per §5.
func (s *Session) SendVideo(ts uint32, data []byte) error {
	if len(data) == 0 {
		return rerrors.NewProtocolError("session.send_video", fmt.Errorf("empty video payload"))
	}
	msg := &chunk.Message{
		CSID:            videoCSID,
		TypeID:          videoMessageTypeID,
		MessageStreamID: s.StreamID(),
		Timestamp:       ts,
		MessageLength:   uint32(len(data)),
		Payload:         data,
	}
	if err := s.send(msg); err != nil {
		return rerrors.NewIOError("session.send_video", err)
	}
	return nil
}

// SendDataFrame writes an AMF0 data (script-data) message, used for
// onMetaData and the in-band NanoTDF header frame embedded inside it.
func (s *Session) SendDataFrame(ts uint32, payload []byte) error {
	if len(payload) == 0 {
		return rerrors.NewProtocolError("session.send_data_frame", fmt.Errorf("empty data frame payload"))
	}
	msg := &chunk.Message{
		CSID:            dataCSID,
		TypeID:          dataMessageTypeID,
		MessageStreamID: s.StreamID(),
		Timestamp:       ts,
		MessageLength:   uint32(len(payload)),
		Payload:         payload,
	}
	if err := s.send(msg); err != nil {
		return rerrors.NewIOError("session.send_data_frame", err)
	}
	return nil
}

// FrameKind classifies an inbound message for a subscribing session.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameAudio
	FrameVideo
	FrameData
)

// Frame is one classified inbound media message.
type Frame struct {
	Kind      FrameKind
	Timestamp uint32
	Payload   []byte
}

// ReadFrame blocks for the next non-control inbound message and classifies
// it. Control messages are applied transparently and never returned. Used by
// the subscriber role's read loop once in StatePlaying.
func (s *Session) ReadFrame() (Frame, error) {
	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			return Frame{}, rerrors.NewIOError("session.read_frame", err)
		}
		if s.handleIfControl(msg) {
			continue
		}
		s.trackInbound(msg)
		switch msg.TypeID {
		case audioMessageTypeID:
			return Frame{Kind: FrameAudio, Timestamp: msg.Timestamp, Payload: msg.Payload}, nil
		case videoMessageTypeID:
			return Frame{Kind: FrameVideo, Timestamp: msg.Timestamp, Payload: msg.Payload}, nil
		case dataMessageTypeID:
			return Frame{Kind: FrameData, Timestamp: msg.Timestamp, Payload: msg.Payload}, nil
		default:
			return Frame{Kind: FrameUnknown, Timestamp: msg.Timestamp, Payload: msg.Payload}, nil
		}
	}
}
