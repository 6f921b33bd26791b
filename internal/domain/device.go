package domain

import (
	"encoding/hex"
	"fmt"
	"time"
)

// DeviceTokenLength is the gateway-fixed length of a binary device token.
const DeviceTokenLength = 32

type RegisterDeviceRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Token  string `json:"token" validate:"required,hexadecimal,len=64"`
}

// Device is a registered push target. Token is the 64-character hex form of the
// 32-byte binary identifier the gateway expects.
type Device struct {
	DeviceID  string    `json:"id" dynamodbav:"device_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Token     string    `json:"token" dynamodbav:"token"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// TokenBytes converts the stored hex token into the fixed-length binary
// identifier used in wire frames.
func (d *Device) TokenBytes() ([]byte, error) {
	b, err := hex.DecodeString(d.Token)
	if err != nil {
		return nil, fmt.Errorf("device token is not valid hex: %w", ErrBadRequest)
	}
	if len(b) != DeviceTokenLength {
		return nil, fmt.Errorf("device token must be %d bytes, got %d: %w", DeviceTokenLength, len(b), ErrBadRequest)
	}
	return b, nil
}
