package apns

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-apns-push/internal/domain"
)

// DefaultSoundFile is the file name sent when a notification asks for the
// default sound rather than naming one.
const DefaultSoundFile = "1.aiff"

// apsBody is the "aps" object of the payload. Field order here is the wire
// order: alert, badge, sound.
type apsBody struct {
	Alert string `json:"alert,omitempty"`
	Badge *int   `json:"badge,omitempty"`
	Sound string `json:"sound,omitempty"`
}

// EncodePayload builds the compact JSON payload for a notification: the "aps"
// object first, then each custom property as a stringified top-level sibling,
// in insertion order. A badge of 0 counts as set and is included.
func EncodePayload(n *domain.Notification) ([]byte, error) {
	aps := apsBody{
		Alert: n.Alert,
		Badge: n.Badge,
	}
	switch {
	case n.Sound != "":
		aps.Sound = n.Sound
	case n.DefaultSound:
		aps.Sound = DefaultSoundFile
	}

	apsJSON, err := json.Marshal(aps)
	if err != nil {
		return nil, fmt.Errorf("encode aps body: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"aps":`)
	buf.Write(apsJSON)
	for _, p := range n.Properties {
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, fmt.Errorf("encode property key %q: %w", p.Key, err)
		}
		value, err := json.Marshal(stringify(p.Value))
		if err != nil {
			return nil, fmt.Errorf("encode property %q: %w", p.Key, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// stringify renders a property value as its string representation. JSON numbers
// decode as float64; integral ones must not pick up a decimal point.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
