package models

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus is the recorded outcome of a call, written to the call log.
type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
	CallRejected  CallStatus = "rejected"
	CallMissed    CallStatus = "missed"
	CallFailed    CallStatus = "failed"
)

// CallRecord is a row in the call log.
type CallRecord struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CallerID  uuid.UUID  `json:"callerId" db:"caller_id"`
	CalleeID  uuid.UUID  `json:"calleeId" db:"callee_id"`
	WithVideo bool       `json:"withVideo" db:"with_video"`
	Status    CallStatus `json:"status" db:"status"`
	StartedAt time.Time  `json:"startedAt" db:"started_at"`
	EndedAt   *time.Time `json:"endedAt,omitempty" db:"ended_at"`

	Caller *PublicProfile `json:"caller,omitempty" db:"-"`
}
