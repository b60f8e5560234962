// Package session implements the client-side RTMP publisher/subscriber
// dialog: dial, handshake, connect/createStream, publish or play, and the
// background inbound-drain reader that keeps control-message state current
// while a send loop owns the connection.
package session

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/logger"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/chunk"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/handshake"
)

// DialTimeout bounds the initial TCP connect.
const DialTimeout = 5 * time.Second

// defaultChunkSize is what this session requests of the peer via
// SetChunkSize immediately after handshake, per §4.3 step 1.
const defaultChunkSize = 4096

// defaultWindowAckSize is what this session advertises via
// WindowAcknowledgementSize immediately after handshake.
const defaultWindowAckSize = 2500000

// State is the stream session state machine per §3.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateConnected
	StatePublishing
	StatePlaying
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StatePublishing:
		return "publishing"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session owns one TCP endpoint and all chunk-codec state for it. All
// mutable fields it shares with the background inbound-drain reader are
// mediated by mu; callers must not share a Session across goroutines beyond
// that reader.
type Session struct {
	mu sync.Mutex

	// sendMu serializes all chunk writes (commands, control responses, and
	// audio/video frames) so csid interleaving on the wire is never
	// corrupted by concurrent writers, per §5.
	sendMu sync.Mutex

	conn   net.Conn
	writer *chunk.Writer
	reader *chunk.Reader
	log    *slog.Logger

	url       *url.URL
	app       string
	streamKey string
	streamID  uint32

	state State
	nextTxnID float64

	bytesReceived      uint32
	lastAckSentAt      uint32
	serverWindowAckSize uint32
	recvChunkSize      uint32
	sendChunkSize      uint32

	stopDrain chan struct{}
	drainDone chan struct{}
}

// New parses rawurl (rtmp://host[:port]/app/streamName) into an unconnected
// Session.
func New(rawurl string) (*Session, error) {
	if !strings.HasPrefix(rawurl, "rtmp://") {
		return nil, rerrors.NewProtocolError("session.new", fmt.Errorf("url must start with rtmp://"))
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, rerrors.NewProtocolError("session.new", err)
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return nil, rerrors.NewProtocolError("session.new", fmt.Errorf("rtmp url must be rtmp://host/app/stream"))
	}
	app := parts[0]
	stream := parts[1]
	return &Session{
		url:           u,
		app:           app,
		streamKey:     app + "/" + stream,
		nextTxnID:     0,
		state:         StateIdle,
		recvChunkSize: 128,
		sendChunkSize: 128,
	}, nil
}

// App returns the RTMP application name parsed from the URL.
func (s *Session) App() string { return s.app }

// StreamName returns the stream name portion (without the app prefix).
func (s *Session) StreamName() string {
	return strings.TrimPrefix(s.streamKey, s.app+"/")
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) nextTransactionID() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxnID++
	return s.nextTxnID
}

// StreamID returns the stream ID allocated by createStream.
func (s *Session) StreamID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID
}

// Dial opens the TCP connection, performs the handshake, and runs the
// connect/createStream dialog, per §4.3.
func (s *Session) Dial() error {
	s.setState(StateConnecting)
	host := s.url.Host
	if !strings.Contains(host, ":") {
		host = host + ":1935"
	}
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.Dial("tcp", host)
	if err != nil {
		s.setState(StateError)
		return rerrors.NewIOError("session.dial", err)
	}
	s.conn = conn
	s.writer = chunk.NewWriter(conn, s.sendChunkSize)
	s.reader = chunk.NewReader(conn, s.recvChunkSize)
	s.log = logger.WithStream(logger.Logger(), s.streamKey)

	s.setState(StateHandshaking)
	if err := handshake.ClientHandshake(conn); err != nil {
		_ = conn.Close()
		s.setState(StateError)
		return err
	}

	if err := s.sendInitialControlBurst(); err != nil {
		s.setState(StateError)
		return err
	}
	if err := s.connectDialog(); err != nil {
		s.setState(StateError)
		return err
	}
	s.setState(StateConnected)
	return nil
}

// Close tears down the background reader (if running) and the connection.
func (s *Session) Close() error {
	s.StopDrain()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// send serializes msg onto the connection behind sendMu, the single choke
// point every command, control response, and media frame write passes
// through.
func (s *Session) send(msg *chunk.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.writer.WriteMessage(msg)
}
