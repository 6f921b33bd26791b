package apns

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-apns-push/internal/domain"
)

const (
	// MaxFrameSize is the hard protocol ceiling for one complete frame,
	// legacy and enhanced alike.
	MaxFrameSize = 256

	// MaxPayloadSize follows from the one-byte payload-length field. This is
	// a genuine protocol constraint, not something to widen.
	MaxPayloadSize = 255
)

// BuildLegacyFrame wraps a payload and a binary device token into the legacy
// frame: two zero bytes, the raw token, a zero byte, a one-byte payload
// length, then the payload.
func BuildLegacyFrame(token, payload []byte) ([]byte, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(0)
	buf.WriteByte(0)
	buf.Write(token)
	return writeTail(&buf, payload)
}

// BuildEnhancedFrame wraps a payload and token into the enhanced frame:
// command byte 1, the notification identifier and absolute expiry time as
// big-endian uint32, then the same token/length/payload tail as the legacy
// frame. The identifier is the correlation token the gateway echoes back in
// asynchronous error responses.
func BuildEnhancedFrame(identifier uint32, expiry time.Time, token, payload []byte) ([]byte, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(1)
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], identifier)
	buf.Write(word[:])
	binary.BigEndian.PutUint32(word[:], uint32(expiry.Unix()))
	buf.Write(word[:])
	buf.WriteByte(0)
	buf.Write(token)
	return writeTail(&buf, payload)
}

// writeTail appends the zero byte, payload length, and payload, then enforces
// the frame-size ceiling on the completed frame.
func writeTail(buf *bytes.Buffer, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		// The length byte cannot represent the payload; report the would-be
		// frame so callers can archive it.
		buf.WriteByte(0)
		buf.WriteByte(byte(MaxPayloadSize))
		buf.Write(payload)
		return nil, &MessageSizeError{Size: buf.Len(), Frame: buf.Bytes()}
	}
	buf.WriteByte(0)
	buf.WriteByte(byte(len(payload)))
	buf.Write(payload)
	if buf.Len() > MaxFrameSize {
		return nil, &MessageSizeError{Size: buf.Len(), Frame: buf.Bytes()}
	}
	return buf.Bytes(), nil
}

func checkToken(token []byte) error {
	if len(token) != domain.DeviceTokenLength {
		return fmt.Errorf("device token must be %d bytes, got %d: %w",
			domain.DeviceTokenLength, len(token), domain.ErrBadRequest)
	}
	return nil
}
