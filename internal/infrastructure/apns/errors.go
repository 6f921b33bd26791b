// Package apns implements the binary wire protocol of the Apple push gateway:
// payload encoding, legacy/enhanced frame construction, and decoding of the
// asynchronous 6-byte error responses the gateway returns after a failed write.
package apns

import "fmt"

// MessageSizeError reports a frame that exceeds the 256-byte protocol ceiling.
// The rejected frame is carried for diagnostics; it must never be sent.
type MessageSizeError struct {
	Size  int
	Frame []byte
}

func (e *MessageSizeError) Error() string {
	return fmt.Sprintf("frame is %d bytes, exceeds the %d-byte protocol limit", e.Size, MaxFrameSize)
}

// TransportError marks a connection-level write failure (broken pipe, reset).
// The delivery layer treats it as the signal to read an async error response;
// every other error kind aborts the batch. Discriminate with errors.As, never
// by message text.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ShortReadError reports an error-response read that returned fewer than the
// 6 required bytes. Partial bytes are never decoded.
type ShortReadError struct {
	Read int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short error-response read: got %d of %d bytes", e.Read, ErrorResponseLength)
}
