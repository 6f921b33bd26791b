package apns

import (
	"testing"

	"github.com/go-apns-push/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEncodePayload_AlertBadgeSound(t *testing.T) {
	n := &domain.Notification{
		Alert: "Hello!",
		Badge: intPtr(5),
		Sound: "my_sound.aiff",
	}

	payload, err := EncodePayload(n)
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{"alert":"Hello!","badge":5,"sound":"my_sound.aiff"}}`, string(payload))
}

func TestEncodePayload_ZeroBadgeIsIncluded(t *testing.T) {
	n := &domain.Notification{
		Badge:        intPtr(0),
		DefaultSound: true,
		Properties:   []domain.Property{{Key: "typ", Value: 1}},
	}

	payload, err := EncodePayload(n)
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{"badge":0,"sound":"1.aiff"},"typ":"1"}`, string(payload))
}

func TestEncodePayload_EmptyNotification(t *testing.T) {
	payload, err := EncodePayload(&domain.Notification{})
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{}}`, string(payload))
}

func TestEncodePayload_ExplicitSoundWinsOverDefault(t *testing.T) {
	n := &domain.Notification{Sound: "chime.aiff", DefaultSound: true}

	payload, err := EncodePayload(n)
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{"sound":"chime.aiff"}}`, string(payload))
}

func TestEncodePayload_PropertiesKeepInsertionOrder(t *testing.T) {
	n := &domain.Notification{
		Alert: "hi",
		Properties: []domain.Property{
			{Key: "zz", Value: "last?"},
			{Key: "aa", Value: 2.5},
			{Key: "flag", Value: true},
		},
	}

	payload, err := EncodePayload(n)
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{"alert":"hi"},"zz":"last?","aa":"2.5","flag":"true"}`, string(payload))
}

func TestEncodePayload_JSONDecodedNumbersStringifyWithoutDecimalPoint(t *testing.T) {
	// Values arriving through the HTTP API decode as float64.
	n := &domain.Notification{
		Properties: []domain.Property{{Key: "typ", Value: float64(1)}},
	}

	payload, err := EncodePayload(n)
	require.NoError(t, err)
	assert.Equal(t, `{"aps":{},"typ":"1"}`, string(payload))
}
