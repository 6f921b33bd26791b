package domain

import "time"

// Alert text longer than this is truncated on assignment, marker included.
const (
	MaxAlertLength = 150
	TruncationMark = "..."
)

// Property is one custom payload entry. Properties keep their insertion order so
// the encoded payload is deterministic; values are stringified at encode time.
type Property struct {
	Key   string      `json:"key" dynamodbav:"key"`
	Value interface{} `json:"value" dynamodbav:"value"`
}

// Notification is one pending or delivered push message. sent_at is the single
// source of truth for "already delivered": records with sent_at set are excluded
// from every subsequent batch.
type Notification struct {
	NotificationID string     `json:"id" dynamodbav:"notification_id"`
	Identifier     uint32     `json:"identifier" dynamodbav:"identifier"` // enhanced-frame correlation token
	DeviceID       string     `json:"device_id" dynamodbav:"device_id"`
	Alert          string     `json:"alert,omitempty" dynamodbav:"alert,omitempty"`
	Badge          *int       `json:"badge,omitempty" dynamodbav:"badge,omitempty"`
	Sound          string     `json:"sound,omitempty" dynamodbav:"sound,omitempty"`
	DefaultSound   bool       `json:"default_sound,omitempty" dynamodbav:"default_sound,omitempty"`
	Properties     []Property `json:"custom_properties,omitempty" dynamodbav:"custom_properties,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty" dynamodbav:"sent_at,omitempty"`
	ErrorCode      int        `json:"error_code" dynamodbav:"error_code"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty" dynamodbav:"claimed_at,omitempty"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
}

// SetAlert assigns the alert text, truncating anything longer than MaxAlertLength
// to exactly MaxAlertLength characters with a trailing truncation marker.
// Truncation happens here, on assignment, never at send time.
func (n *Notification) SetAlert(alert string) {
	runes := []rune(alert)
	if len(runes) <= MaxAlertLength {
		n.Alert = alert
		return
	}
	n.Alert = string(runes[:MaxAlertLength-len(TruncationMark)]) + TruncationMark
}

// Pending reports whether the notification is still a candidate for delivery.
func (n *Notification) Pending() bool {
	return n.SentAt == nil
}
