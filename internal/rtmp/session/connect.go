package session

import (
	"fmt"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/amf"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/chunk"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/control"
)

// commandCSID is the chunk stream ID command messages share with control
// messages, keeping the signaling channel on one low CSID.
const commandCSID = 3

// sendInitialControlBurst issues WindowAcknowledgementSize, SetPeerBandwidth,
// and SetChunkSize in that order.
func (s *Session) sendInitialControlBurst() error {
	msgs := []*chunk.Message{
		control.EncodeWindowAcknowledgementSize(defaultWindowAckSize),
		control.EncodeSetPeerBandwidth(defaultWindowAckSize, 2),
		control.EncodeSetChunkSize(defaultChunkSize),
	}
	for _, m := range msgs {
		if err := s.send(m); err != nil {
			return rerrors.NewIOError("session.control_burst", err)
		}
	}
	s.writer.SetChunkSize(defaultChunkSize)
	s.sendChunkSize = defaultChunkSize
	return nil
}

// connectDialog performs connect -> createStream per §4.3 and records the
// stream ID the server allocates. The releaseStream/FCPublish bookkeeping is
// not part of it; Publish sends that later via ReleaseStream.
func (s *Session) connectDialog() error {
	if err := s.sendConnect(); err != nil {
		return err
	}
	if err := s.awaitResult("connect"); err != nil {
		return err
	}
	if err := s.sendCreateStream(); err != nil {
		return err
	}
	streamID, err := s.awaitCreateStreamResult()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.streamID = streamID
	s.mu.Unlock()
	return nil
}

func (s *Session) sendConnect() error {
	trx := s.nextTransactionID()
	payload, err := amf.Connect(s.app, s.url.String(), "FMLE/3.0 (compatible; FMSc/1.0)", 0, trx)
	if err != nil {
		return rerrors.NewAMFError("session.send_connect", err)
	}
	return s.writeCommand(0, payload)
}

func (s *Session) sendCreateStream() error {
	trx := s.nextTransactionID()
	payload, err := amf.CreateStream(trx)
	if err != nil {
		return rerrors.NewAMFError("session.send_create_stream", err)
	}
	return s.writeCommand(0, payload)
}

// ReleaseStream sends the releaseStream/FCPublish bookkeeping commands some
// ingests expect before a publish, per §4.3.
func (s *Session) ReleaseStream() error {
	name := s.StreamName()
	if payload, err := amf.ReleaseStream(name, s.nextTransactionID()); err != nil {
		return rerrors.NewAMFError("session.release_stream", err)
	} else if err := s.writeCommand(0, payload); err != nil {
		return err
	}
	if payload, err := amf.FCPublish(name, s.nextTransactionID()); err != nil {
		return rerrors.NewAMFError("session.fc_publish", err)
	} else if err := s.writeCommand(0, payload); err != nil {
		return err
	}
	return nil
}

// FCUnpublish and DeleteStream send the matching teardown bookkeeping
// commands, per §4.3's graceful-shutdown sequence.
func (s *Session) FCUnpublish() error {
	payload, err := amf.FCUnpublish(s.StreamName(), s.nextTransactionID())
	if err != nil {
		return rerrors.NewAMFError("session.fc_unpublish", err)
	}
	return s.writeCommand(0, payload)
}

func (s *Session) DeleteStream() error {
	payload, err := amf.DeleteStream(float64(s.StreamID()), s.nextTransactionID())
	if err != nil {
		return rerrors.NewAMFError("session.delete_stream", err)
	}
	return s.writeCommand(0, payload)
}

// writeCommand wraps payload as an AMF0 command message (type 20) on the
// shared command CSID with the given message stream ID.
func (s *Session) writeCommand(msid uint32, payload []byte) error {
	msg := &chunk.Message{
		CSID:            commandCSID,
		TypeID:          commandMessageAMF0TypeID,
		MessageStreamID: msid,
		MessageLength:   uint32(len(payload)),
		Payload:         payload,
	}
	if err := s.send(msg); err != nil {
		return rerrors.NewIOError("session.write_command", err)
	}
	return nil
}

// commandMessageAMF0TypeID is the RTMP message type ID for AMF0 command
// messages (20).
const commandMessageAMF0TypeID = 20

// awaitResult drains inbound messages until a command response ("_result"
// or "_error") is seen, applying any interleaved control messages along the
// way. op names the pending command for error messages.
func (s *Session) awaitResult(op string) error {
	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			return rerrors.NewIOError("session.await_"+op, err)
		}
		if s.handleIfControl(msg) {
			continue
		}
		if msg.TypeID != commandMessageAMF0TypeID {
			continue
		}
		args, err := amf.DecodeAll(msg.Payload)
		if err != nil || len(args) == 0 {
			continue
		}
		name, ok := args[0].(string)
		if !ok {
			continue
		}
		switch name {
		case "_result":
			return nil
		case "_error":
			return rerrors.NewProtocolError("session."+op, fmt.Errorf("%s failed: server returned _error", op))
		}
	}
}

// awaitCreateStreamResult drains inbound messages until createStream's
// _result arrives, extracting the allocated stream ID from its 4th AMF
// value.
func (s *Session) awaitCreateStreamResult() (uint32, error) {
	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			return 0, rerrors.NewIOError("session.await_create_stream", err)
		}
		if s.handleIfControl(msg) {
			continue
		}
		if msg.TypeID != commandMessageAMF0TypeID {
			continue
		}
		args, err := amf.DecodeAll(msg.Payload)
		if err != nil || len(args) == 0 {
			continue
		}
		name, ok := args[0].(string)
		if !ok {
			continue
		}
		switch name {
		case "_result":
			if len(args) < 4 {
				return 0, rerrors.NewProtocolError("session.create_stream", fmt.Errorf("_result missing stream id argument"))
			}
			id, ok := args[3].(float64)
			if !ok {
				return 0, rerrors.NewProtocolError("session.create_stream", fmt.Errorf("_result stream id not a number"))
			}
			return uint32(id), nil
		case "_error":
			return 0, rerrors.NewProtocolError("session.create_stream", fmt.Errorf("createStream failed: server returned _error"))
		}
	}
}
