package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAlert_ShortAlertUnchanged(t *testing.T) {
	var n Notification
	n.SetAlert("Hello!")
	assert.Equal(t, "Hello!", n.Alert)
}

func TestSetAlert_ExactLimitUnchanged(t *testing.T) {
	alert := strings.Repeat("a", MaxAlertLength)

	var n Notification
	n.SetAlert(alert)
	assert.Equal(t, alert, n.Alert)
}

func TestSetAlert_LongAlertTruncatedWithMarker(t *testing.T) {
	var n Notification
	n.SetAlert(strings.Repeat("a", 500))

	assert.Len(t, n.Alert, MaxAlertLength)
	assert.True(t, strings.HasSuffix(n.Alert, TruncationMark))
}

func TestSetAlert_TruncationCountsRunesNotBytes(t *testing.T) {
	var n Notification
	n.SetAlert(strings.Repeat("é", 200))

	runes := []rune(n.Alert)
	assert.Len(t, runes, MaxAlertLength)
	assert.True(t, strings.HasSuffix(n.Alert, TruncationMark))
}

func TestPending_FollowsSentAt(t *testing.T) {
	var n Notification
	assert.True(t, n.Pending())

	now := time.Now()
	n.SentAt = &now
	assert.False(t, n.Pending())
}

func TestTokenBytes(t *testing.T) {
	d := Device{Token: strings.Repeat("ab", DeviceTokenLength)}
	b, err := d.TokenBytes()
	assert.NoError(t, err)
	assert.Len(t, b, DeviceTokenLength)

	d.Token = "abcd"
	_, err = d.TokenBytes()
	assert.ErrorIs(t, err, ErrBadRequest)

	d.Token = strings.Repeat("zz", DeviceTokenLength)
	_, err = d.TokenBytes()
	assert.ErrorIs(t, err, ErrBadRequest)
}
