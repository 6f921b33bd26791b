package apns

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"
)

const (
	// ErrorResponseLength is the fixed size of the gateway's async error frame.
	ErrorResponseLength = 6

	// DefaultResponseTimeout bounds how long ReadErrorResponse waits for the
	// gateway to report anything. No response within the window is the common
	// case and not an error.
	DefaultResponseTimeout = 5 * time.Second
)

// ErrorResponse is a decoded 6-byte error frame: one command byte (8 by
// protocol convention, not validated here), one error code, and the
// big-endian identifier of the rejected notification.
type ErrorResponse struct {
	Command    uint8
	Code       uint8
	Identifier uint32
}

// responseDescriptions maps the gateway's error codes to readable text.
var responseDescriptions = map[uint8]string{
	0:   "no errors",
	1:   "processing error",
	2:   "missing device token",
	3:   "missing topic",
	4:   "missing payload",
	5:   "invalid token size",
	6:   "invalid topic size",
	7:   "invalid payload size",
	8:   "invalid token",
	10:  "shutdown",
	255: "unknown",
}

// Description returns the gateway's meaning for the response code.
func (r *ErrorResponse) Description() string {
	if d, ok := responseDescriptions[r.Code]; ok {
		return d
	}
	return "unknown"
}

// ReadErrorResponse waits up to timeout for the connection to yield an error
// frame. A quiet connection (deadline hit, or closed with nothing written)
// returns (nil, nil). Fewer than 6 bytes yields a ShortReadError; partial
// frames are never decoded.
func ReadErrorResponse(conn net.Conn, timeout time.Duration) (*ErrorResponse, error) {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, &TransportError{Op: "set read deadline", Err: err}
	}
	defer conn.SetReadDeadline(time.Time{})

	var frame [ErrorResponseLength]byte
	n, err := io.ReadFull(conn, frame[:])
	if err != nil {
		if n == 0 {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, nil
			}
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
		return nil, &ShortReadError{Read: n}
	}

	return &ErrorResponse{
		Command:    frame[0],
		Code:       frame[1],
		Identifier: binary.BigEndian.Uint32(frame[2:6]),
	}, nil
}

// WriteFrame writes one complete frame to the connection. Any failure is
// reported as a TransportError so the delivery layer can distinguish a broken
// connection from every other fault without inspecting error text.
func WriteFrame(conn net.Conn, frame []byte) error {
	if _, err := conn.Write(frame); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
