package session

import (
	"time"

	"github.com/rvance/ntdf-rtmp/internal/rtmp/chunk"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/control"
)

// drainPollInterval bounds how often the background reader polls for
// inbound bytes while publishing, per §5's "poll every ≤100 ms".
const drainPollInterval = 50 * time.Millisecond

// drainReadDeadline is the short read deadline used for each non-blocking
// poll attempt.
const drainReadDeadline = 20 * time.Millisecond

// handleIfControl applies msg if it is a protocol control message (types
// 1-6), updating session bookkeeping and acking the peer's window as
// needed. Returns true if msg was a control message and has been fully
// handled.
func (s *Session) handleIfControl(msg *chunk.Message) bool {
	switch msg.TypeID {
	case control.TypeSetChunkSize:
		v, err := control.Decode(msg.TypeID, msg.Payload)
		if err != nil {
			return true
		}
		sz := v.(*control.SetChunkSize)
		s.mu.Lock()
		s.recvChunkSize = sz.Size
		s.mu.Unlock()
		s.reader.SetChunkSize(sz.Size)
		return true
	case control.TypeWindowAcknowledgement:
		v, err := control.Decode(msg.TypeID, msg.Payload)
		if err != nil {
			return true
		}
		was := v.(*control.WindowAcknowledgementSize)
		s.mu.Lock()
		s.serverWindowAckSize = was.Size
		s.mu.Unlock()
		return true
	case control.TypeSetPeerBandwidth:
		v, err := control.Decode(msg.TypeID, msg.Payload)
		if err != nil {
			return true
		}
		spb := v.(*control.SetPeerBandwidth)
		s.mu.Lock()
		s.serverWindowAckSize = spb.Bandwidth
		s.mu.Unlock()
		_ = s.send(control.EncodeWindowAcknowledgementSize(spb.Bandwidth))
		return true
	case control.TypeUserControl:
		v, err := control.Decode(msg.TypeID, msg.Payload)
		if err != nil {
			return true
		}
		uc := v.(*control.UserControl)
		if uc.EventType == control.UCPingRequest {
			_ = s.send(control.EncodeUserControlPingResponse(uc.Timestamp))
		}
		return true
	case control.TypeAcknowledgement, control.TypeAbortMessage:
		return true
	default:
		return false
	}
}

// trackInbound adds msg's payload length (MessageLength) to bytes_received;
// chunk basic, message and extended-timestamp headers are not counted. It sends an
// Acknowledgement once the running total has advanced by peer_window/10,
// per §4.2's window-acknowledgement rule.
func (s *Session) trackInbound(msg *chunk.Message) {
	s.mu.Lock()
	s.bytesReceived += msg.MessageLength
	received := s.bytesReceived
	lastAck := s.lastAckSentAt
	window := s.serverWindowAckSize
	s.mu.Unlock()

	if window == 0 {
		return
	}
	if received-lastAck >= window/10 {
		if err := s.send(control.EncodeAcknowledgement(received)); err == nil {
			s.mu.Lock()
			s.lastAckSentAt = received
			s.mu.Unlock()
		}
	}
}

// StartDrain launches the background inbound-drain reader per §5: it polls
// the connection on a short read deadline, applying any control message it
// sees and discarding other message types (the publisher does not expect
// inbound audio/video/commands once publishing). Safe to call once per
// Dial; Close/StopDrain stops it.
func (s *Session) StartDrain() {
	s.mu.Lock()
	if s.stopDrain != nil {
		s.mu.Unlock()
		return
	}
	s.stopDrain = make(chan struct{})
	s.drainDone = make(chan struct{})
	stop := s.stopDrain
	done := s.drainDone
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(drainPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.pollOnce()
			}
		}
	}()
}

// pollOnce performs one non-blocking poll: set a short read deadline, try to
// read one message, and restore no deadline afterward. Timeouts are not
// errors here — they mean nothing arrived within the poll window.
func (s *Session) pollOnce() {
	if s.conn == nil {
		return
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(drainReadDeadline))
	msg, err := s.reader.ReadMessage()
	_ = s.conn.SetReadDeadline(time.Time{})
	if err != nil {
		return
	}
	s.trackInbound(msg)
	s.handleIfControl(msg)
}

// StopDrain halts the background reader started by StartDrain, if any, and
// waits for it to exit.
func (s *Session) StopDrain() {
	s.mu.Lock()
	stop := s.stopDrain
	done := s.drainDone
	s.stopDrain = nil
	s.drainDone = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
