package session

import (
	"fmt"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/amf"
)

// Publish sends releaseStream/FCPublish bookkeeping then a publish command
// for this session's stream name, awaits NetStream.Publish.Start, and
// transitions to StatePublishing. Starts the background inbound-drain
// reader on success, per §5.
func (s *Session) Publish() error {
	if err := s.ReleaseStream(); err != nil {
		return err
	}
	payload, err := amf.Publish(s.StreamName(), "live", 0)
	if err != nil {
		return rerrors.NewAMFError("session.publish", err)
	}
	if err := s.writeCommand(s.StreamID(), payload); err != nil {
		return err
	}
	if err := s.awaitOnStatus("NetStream.Publish.Start"); err != nil {
		return err
	}
	s.setState(StatePublishing)
	s.StartDrain()
	return nil
}

// Play sends a play command (start=-2: live) for this session's stream
// name, awaits NetStream.Play.Start, and transitions to StatePlaying.
func (s *Session) Play() error {
	payload, err := amf.Play(s.StreamName(), -2, 0)
	if err != nil {
		return rerrors.NewAMFError("session.play", err)
	}
	if err := s.writeCommand(s.StreamID(), payload); err != nil {
		return err
	}
	if err := s.awaitOnStatus("NetStream.Play.Start"); err != nil {
		return err
	}
	s.setState(StatePlaying)
	return nil
}

// awaitOnStatus drains inbound messages until an onStatus command carrying
// the given code is observed in its info object, applying any interleaved
// control messages along the way.
func (s *Session) awaitOnStatus(code string) error {
	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			return rerrors.NewIOError("session.await_on_status", err)
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
		if !ok || name != "onStatus" {
			continue
		}
		for _, a := range args[1:] {
			info, ok := a.(map[string]interface{})
			if !ok {
				continue
			}
			if c, ok := info["code"].(string); ok {
				if c == code {
					return nil
				}
				if levelIsError(info) {
					return rerrors.NewProtocolError("session.on_status", fmt.Errorf("onStatus %s: %s", c, description(info)))
				}
			}
		}
	}
}

func levelIsError(info map[string]interface{}) bool {
	lvl, _ := info["level"].(string)
	return lvl == "error"
}

func description(info map[string]interface{}) string {
	if d, ok := info["description"].(string); ok {
		return d
	}
	return ""
}
