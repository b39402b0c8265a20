package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagePendingRequest(t *testing.T) {
	pending := RequestPending
	accepted := RequestAccepted
	declined := RequestDeclined

	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"ordinary message", Message{}, false},
		{"request with nil status", Message{IsRequest: true}, true},
		{"request still pending", Message{IsRequest: true, RequestStatus: &pending}, true},
		{"request accepted", Message{IsRequest: true, RequestStatus: &accepted}, false},
		{"request declined", Message{IsRequest: true, RequestStatus: &declined}, false},
		{"status without request flag", Message{RequestStatus: &pending}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.PendingRequest())
		})
	}
}

func TestMessageCounterpartyID(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	msg := Message{SenderID: a, ReceiverID: b}

	assert.Equal(t, b, msg.CounterpartyID(a))
	assert.Equal(t, a, msg.CounterpartyID(b))
}

func TestJSONTimeRoundTrip(t *testing.T) {
	original := JSONTime(time.Date(2025, 6, 15, 9, 30, 0, 123456789, time.UTC))

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-15T09:30:00.123456789Z"`, string(data))

	var decoded JSONTime
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Time().Equal(decoded.Time()))
}

func TestJSONTimeAcceptsSecondPrecisionAndNull(t *testing.T) {
	var jt JSONTime
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-15T09:30:00Z"`), &jt))
	assert.Equal(t, 2025, jt.Time().Year())

	require.NoError(t, json.Unmarshal([]byte(`null`), &jt))
	assert.True(t, jt.Time().IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"not-a-time"`), &jt))
}
