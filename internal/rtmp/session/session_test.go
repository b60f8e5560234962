package session

import (
	"net"
	"testing"

	"github.com/rvance/ntdf-rtmp/internal/logger"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/chunk"
)

func TestNew_ParsesAppAndStream(t *testing.T) {
	s, err := New("rtmp://localhost:1935/live/mystream")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.App() != "live" {
		t.Fatalf("app: got %q want %q", s.App(), "live")
	}
	if s.StreamName() != "mystream" {
		t.Fatalf("stream name: got %q want %q", s.StreamName(), "mystream")
	}
	if s.State() != StateIdle {
		t.Fatalf("expected initial state idle, got %v", s.State())
	}
}

func TestNew_RejectsNonRTMPScheme(t *testing.T) {
	if _, err := New("http://localhost/live/mystream"); err == nil {
		t.Fatal("expected error for a non-rtmp:// url")
	}
}

func TestNew_RejectsMissingStreamSegment(t *testing.T) {
	if _, err := New("rtmp://localhost/live"); err == nil {
		t.Fatal("expected error when the url has no stream segment")
	}
}

// pipedSession wires a Session directly to one end of a net.Pipe, bypassing
// Dial's real TCP connect and handshake so send/receive plumbing can be
// exercised in-process.
func pipedSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, peer := net.Pipe()
	s := &Session{
		conn:          client,
		writer:        chunk.NewWriter(client, 128),
		reader:        chunk.NewReader(client, 128),
		log:           logger.Logger(),
		streamKey:     "live/mystream",
		app:           "live",
		recvChunkSize: 128,
		sendChunkSize: 128,
	}
	t.Cleanup(func() {
		_ = client.Close()
		_ = peer.Close()
	})
	return s, peer
}

func TestSession_SendVideoAudioData_WireFraming(t *testing.T) {
	s, peer := pipedSession(t)
	peerReader := chunk.NewReader(peer, 128)

	done := make(chan *chunk.Message, 1)
	go func() {
		msg, err := peerReader.ReadMessage()
		if err != nil {
			t.Errorf("peer read: %v", err)
			done <- nil
			return
		}
		done <- msg
	}()

	if err := s.SendVideo(42, []byte{0x17, 0x01, 0x00, 0x00, 0x00, 0xaa}); err != nil {
		t.Fatalf("send video: %v", err)
	}
	msg := <-done
	if msg == nil {
		t.Fatal("expected to receive a message")
	}
	if msg.TypeID != videoMessageTypeID {
		t.Fatalf("type id: got %d want %d", msg.TypeID, videoMessageTypeID)
	}
	if msg.Timestamp != 42 {
		t.Fatalf("timestamp: got %d want 42", msg.Timestamp)
	}
}

func TestSession_SendVideo_RejectsEmptyPayload(t *testing.T) {
	s, _ := pipedSession(t)
	if err := s.SendVideo(0, nil); err == nil {
		t.Fatal("expected error for an empty video payload")
	}
}

func TestSession_SendAudio_RejectsEmptyPayload(t *testing.T) {
	s, _ := pipedSession(t)
	if err := s.SendAudio(0, []byte{}); err == nil {
		t.Fatal("expected error for an empty audio payload")
	}
}
