package call

import (
	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
)

// SignalKind discriminates the payloads relayed between call endpoints.
type SignalKind string

const (
	SignalInvite    SignalKind = "invite"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
	SignalReject    SignalKind = "reject"
	SignalHangup    SignalKind = "hangup"
)

// Reject reasons, surfaced to the caller for user-facing messaging only.
const (
	ReasonDeclined = "declined"
	ReasonBusy     = "busy"
	ReasonTimeout  = "timeout"
	ReasonBlocked  = "blocked"
	ReasonError    = "error"
)

// Signal is one hop of the offer/answer/candidate exchange. Media never
// flows through here; this is pure session establishment, relayed over each
// user's broadcast channel.
type Signal struct {
	CallID    uuid.UUID       `json:"callId"`
	Kind      SignalKind      `json:"kind"`
	From      uuid.UUID       `json:"from"`
	To        uuid.UUID       `json:"to"`
	WithVideo bool            `json:"withVideo,omitempty"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate string          `json:"candidate,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp models.JSONTime `json:"timestamp"`

	// Caller profile rides along on invites so the callee can render the
	// incoming-call prompt without another fetch.
	Caller *models.PublicProfile `json:"caller,omitempty"`
}

// SignalSender delivers a signal to every connected client of a user.
// The websocket hub implements it server-side; tests use fakes.
type SignalSender interface {
	SendCallSignal(userID uuid.UUID, sig *Signal)
}
