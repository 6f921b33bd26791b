package apns

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadErrorResponse_DecodesFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		server.Write([]byte{8, 1, 0, 0, 0, 42})
	}()

	resp, err := ReadErrorResponse(client, time.Second)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, uint8(8), resp.Command)
	assert.Equal(t, uint8(1), resp.Code)
	assert.Equal(t, uint32(42), resp.Identifier)
	assert.Equal(t, "processing error", resp.Description())
}

func TestReadErrorResponse_QuietConnectionIsNoResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	resp, err := ReadErrorResponse(client, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestReadErrorResponse_ClosedWithoutDataIsNoResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	server.Close()

	resp, err := ReadErrorResponse(client, time.Second)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestReadErrorResponse_ShortRead(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		server.Write([]byte{8, 1, 0})
		server.Close()
	}()

	resp, err := ReadErrorResponse(client, time.Second)
	assert.Nil(t, resp)

	var short *ShortReadError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 3, short.Read)
}

func TestReadErrorResponse_UnknownCodeDescription(t *testing.T) {
	r := &ErrorResponse{Code: 99}
	assert.Equal(t, "unknown", r.Description())
}

func TestWriteFrame_WrapsFailuresAsTransportError(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	server.Close()

	err := WriteFrame(client, []byte{0, 0, 1})
	require.Error(t, err)

	var transport *TransportError
	assert.True(t, errors.As(err, &transport))
}
