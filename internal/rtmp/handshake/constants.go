package handshake

import (
	"io"
	"net"
	"time"

	rerrors "github.com/rvance/ntdf-rtmp/internal/errors"
)

// Handshake constants for the RTMP simple (version 3) handshake. C0/S0 is a
// single version byte (0x03). Each of C1, S1, C2, S2 are 1536 bytes.
const (
	Version           = 0x03
	PacketSize        = 1536 // size of C1/S1/C2/S2 blocks
	randomFieldOffset = 8    // first 8 bytes are timestamp+zero, remaining 1528 random
)

// setReadDeadline sets the read deadline, wrapping any failure as a handshake error.
func setReadDeadline(c net.Conn, d time.Duration) error {
	if err := c.SetReadDeadline(time.Now().Add(d)); err != nil {
		return rerrors.NewHandshakeError("set read deadline", err)
	}
	return nil
}

// setWriteDeadline sets the write deadline, wrapping any failure as a handshake error.
func setWriteDeadline(c net.Conn, d time.Duration) error {
	if err := c.SetWriteDeadline(time.Now().Add(d)); err != nil {
		return rerrors.NewHandshakeError("set write deadline", err)
	}
	return nil
}

// writeFull ensures the entire buffer is written.
func writeFull(w io.Writer, b []byte) error {
	off := 0
	for off < len(b) {
		n, err := w.Write(b[off:])
		if err != nil {
			return err
		}
		off += n
	}
	return nil
}

// bytesEqual is a small inline comparison (avoids importing bytes just for Equal).
func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isTimeoutErr classifies a net.Error-shaped timeout so callers can convert it
// into a TimeoutError rather than a generic HandshakeError.
func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	type to interface{ Timeout() bool }
	if ne, ok := err.(to); ok && ne.Timeout() {
		return true
	}
	return false
}
