package call

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
)

// State is the phase of a call session endpoint.
type State string

const (
	StateIdle      State = "idle"
	StateCalling   State = "calling" // caller, waiting for an answer
	StateRinging   State = "ringing" // callee, incoming invite pending
	StateConnected State = "connected"
	StateEnded     State = "ended"
)

// EndReason distinguishes why a session terminated. It only affects
// user-facing messaging; no further transitions depend on it.
type EndReason string

const (
	EndNone     EndReason = ""
	EndHangup   EndReason = "hangup"
	EndRejected EndReason = "rejected"
	EndBusy     EndReason = "busy"
	EndTimeout  EndReason = "timeout"
	EndError    EndReason = "error"
)

// PeerConnection is the narrow slice of the native peer-connection primitive
// the session needs. Implementations bind to real media stacks; tests use
// fakes.
type PeerConnection interface {
	CreateOffer(ctx context.Context) (string, error)
	CreateAnswer(ctx context.Context, offer string) (string, error)
	SetAnswer(answer string) error
	AddICECandidate(candidate string) error
	// OnConnected registers the callback fired when ICE reaches the
	// connected state.
	OnConnected(fn func())
	Close() error
}

// MediaStream is a captured local audio (and optionally video) stream.
type MediaStream interface {
	SetAudioEnabled(enabled bool)
	SetVideoEnabled(enabled bool)
	AudioEnabled() bool
	VideoEnabled() bool
	Stop()
}

// MediaDevices acquires local capture devices.
type MediaDevices interface {
	GetUserMedia(audio, video bool) (MediaStream, error)
}

// Ringer plays the looping incoming-call cue while the session is ringing.
type Ringer interface {
	Start()
	Stop()
}

// Session is the per-call state machine on one endpoint. It owns the peer
// connection and local media exclusively; at most one session is active per
// client. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	selfID  uuid.UUID
	profile *models.PublicProfile

	devices MediaDevices
	newPeer func() PeerConnection
	signals SignalSender
	ringer  Ringer

	state     State
	endReason EndReason
	callID    uuid.UUID
	peerID    uuid.UUID
	withVideo bool

	pc    PeerConnection
	media MediaStream

	pendingOffer string // callee: offer held between invite and accept

	durationSecs int
	tickerStop   chan struct{}
}

// NewSession returns an idle session for the given user.
func NewSession(selfID uuid.UUID, profile *models.PublicProfile, devices MediaDevices, newPeer func() PeerConnection, signals SignalSender, ringer Ringer) *Session {
	return &Session{
		selfID:  selfID,
		profile: profile,
		devices: devices,
		newPeer: newPeer,
		signals: signals,
		ringer:  ringer,
		state:   StateIdle,
	}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EndReason returns why the session ended, or EndNone while it is live.
func (s *Session) EndReason() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// CallID returns the identifier of the current or last call.
func (s *Session) CallID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}

// DurationSeconds returns elapsed connected time. It is zero outside
// Connected and resets to zero when the session ends.
func (s *Session) DurationSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationSecs
}

// Initiate starts an outbound call: acquires local media, creates an offer,
// and sends the invitation to the callee. Any failure tears down acquired
// resources and leaves the session idle; no partial call state persists.
func (s *Session) Initiate(ctx context.Context, calleeID uuid.UUID, withVideo bool) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return uuid.Nil, fmt.Errorf("cannot initiate call while %s", s.state)
	}

	media, err := s.devices.GetUserMedia(true, withVideo)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to acquire local media: %w", err)
	}

	pc := s.newPeer()
	offer, err := pc.CreateOffer(ctx)
	if err != nil {
		media.Stop()
		_ = pc.Close()
		return uuid.Nil, fmt.Errorf("failed to create offer: %w", err)
	}

	callID := uuid.New()
	s.callID = callID
	s.peerID = calleeID
	s.withVideo = withVideo
	s.media = media
	s.pc = pc
	s.state = StateCalling
	pc.OnConnected(s.handleConnected)

	s.signals.SendCallSignal(calleeID, &Signal{
		CallID:    callID,
		Kind:      SignalInvite,
		From:      s.selfID,
		To:        calleeID,
		WithVideo: withVideo,
		SDP:       offer,
		Timestamp: models.JSONTime(time.Now()),
		Caller:    s.profile,
	})
	return callID, nil
}

// HandleSignal feeds an inbound signal into the state machine. Signals for a
// different call than the active one are ignored, except invites, which are
// answered with a busy rejection when a call is already live.
func (s *Session) HandleSignal(sig *Signal) {
	switch sig.Kind {
	case SignalInvite:
		s.handleInvite(sig)
	case SignalAnswer:
		s.handleAnswer(sig)
	case SignalCandidate:
		s.handleCandidate(sig)
	case SignalReject:
		s.handleReject(sig)
	case SignalHangup:
		s.handleRemoteHangup(sig)
	default:
		log.Printf("Call Session (User %s): Ignoring unknown signal kind %q", s.selfID, sig.Kind)
	}
}

func (s *Session) handleInvite(sig *Signal) {
	s.mu.Lock()

	if s.state != StateIdle {
		// Already on a call: automatically reject the second invite as busy.
		from := sig.From
		callID := sig.CallID
		s.mu.Unlock()
		s.signals.SendCallSignal(from, &Signal{
			CallID:    callID,
			Kind:      SignalReject,
			From:      s.selfID,
			To:        from,
			Reason:    ReasonBusy,
			Timestamp: models.JSONTime(time.Now()),
		})
		return
	}

	s.callID = sig.CallID
	s.peerID = sig.From
	s.withVideo = sig.WithVideo
	s.pendingOffer = sig.SDP
	s.endReason = EndNone
	s.state = StateRinging
	s.mu.Unlock()

	if s.ringer != nil {
		s.ringer.Start()
	}
}

// Accept answers a ringing call: acquires media matching the invitation's
// video flag, negotiates an answer, and sends it back. On failure the
// session ends with an error and the caller is notified best-effort.
func (s *Session) Accept(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRinging {
		s.mu.Unlock()
		return fmt.Errorf("cannot accept call while %s", s.state)
	}
	offer := s.pendingOffer
	withVideo := s.withVideo
	peerID := s.peerID
	callID := s.callID
	s.mu.Unlock()

	if s.ringer != nil {
		s.ringer.Stop()
	}

	media, err := s.devices.GetUserMedia(true, withVideo)
	if err != nil {
		s.failAndNotify(peerID, callID, fmt.Errorf("failed to acquire local media: %w", err))
		return fmt.Errorf("failed to acquire local media: %w", err)
	}

	pc := s.newPeer()
	answer, err := pc.CreateAnswer(ctx, offer)
	if err != nil {
		media.Stop()
		_ = pc.Close()
		s.failAndNotify(peerID, callID, fmt.Errorf("failed to create answer: %w", err))
		return fmt.Errorf("failed to create answer: %w", err)
	}

	s.mu.Lock()
	if s.state != StateRinging {
		// Torn down while we were negotiating (remote hangup or timeout).
		s.mu.Unlock()
		media.Stop()
		_ = pc.Close()
		return fmt.Errorf("call ended during accept")
	}
	s.media = media
	s.pc = pc
	pc.OnConnected(s.handleConnected)
	s.mu.Unlock()

	s.signals.SendCallSignal(peerID, &Signal{
		CallID:    callID,
		Kind:      SignalAnswer,
		From:      s.selfID,
		To:        peerID,
		SDP:       answer,
		Timestamp: models.JSONTime(time.Now()),
	})
	return nil
}

// Reject declines a ringing call and notifies the caller.
func (s *Session) Reject() error {
	s.mu.Lock()
	if s.state != StateRinging {
		s.mu.Unlock()
		return fmt.Errorf("cannot reject call while %s", s.state)
	}
	peerID := s.peerID
	callID := s.callID
	s.mu.Unlock()

	s.signals.SendCallSignal(peerID, &Signal{
		CallID:    callID,
		Kind:      SignalReject,
		From:      s.selfID,
		To:        peerID,
		Reason:    ReasonDeclined,
		Timestamp: models.JSONTime(time.Now()),
	})
	s.end(EndRejected)
	return nil
}

// Hangup tears down the call from any state. It is idempotent: once the
// session is terminal (or never left idle) it is a no-op.
func (s *Session) Hangup() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	peerID := s.peerID
	callID := s.callID
	s.mu.Unlock()

	s.signals.SendCallSignal(peerID, &Signal{
		CallID:    callID,
		Kind:      SignalHangup,
		From:      s.selfID,
		To:        peerID,
		Timestamp: models.JSONTime(time.Now()),
	})
	s.end(EndHangup)
}

// ToggleAudio flips the local audio track and returns the new enabled state.
// After termination it is a no-op.
func (s *Session) ToggleAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded || s.media == nil {
		return false
	}
	enabled := !s.media.AudioEnabled()
	s.media.SetAudioEnabled(enabled)
	return enabled
}

// ToggleVideo flips the local video track and returns the new enabled state.
// After termination it is a no-op.
func (s *Session) ToggleVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded || s.media == nil {
		return false
	}
	enabled := !s.media.VideoEnabled()
	s.media.SetVideoEnabled(enabled)
	return enabled
}

func (s *Session) handleAnswer(sig *Signal) {
	s.mu.Lock()
	if s.state != StateCalling || sig.CallID != s.callID {
		s.mu.Unlock()
		return
	}
	pc := s.pc
	s.mu.Unlock()

	if err := pc.SetAnswer(sig.SDP); err != nil {
		log.Printf("Call Session (User %s): Failed to apply answer for call %s: %v", s.selfID, sig.CallID, err)
		s.failAndNotify(sig.From, sig.CallID, err)
	}
}

func (s *Session) handleCandidate(sig *Signal) {
	s.mu.Lock()
	if sig.CallID != s.callID || s.pc == nil || s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	pc := s.pc
	s.mu.Unlock()

	if err := pc.AddICECandidate(sig.Candidate); err != nil {
		log.Printf("Call Session (User %s): Failed to add ICE candidate for call %s: %v", s.selfID, sig.CallID, err)
	}
}

func (s *Session) handleReject(sig *Signal) {
	s.mu.Lock()
	if sig.CallID != s.callID || s.state == StateEnded || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch sig.Reason {
	case ReasonBusy:
		s.end(EndBusy)
	case ReasonTimeout:
		s.end(EndTimeout)
	case ReasonError, ReasonBlocked:
		s.end(EndError)
	default:
		s.end(EndRejected)
	}
}

func (s *Session) handleRemoteHangup(sig *Signal) {
	s.mu.Lock()
	if sig.CallID != s.callID || s.state == StateEnded || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.end(EndHangup)
}

func (s *Session) handleConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCalling && s.state != StateRinging {
		return
	}
	s.state = StateConnected
	s.durationSecs = 0
	s.startDurationTickerLocked()
}

// startDurationTickerLocked increments the elapsed counter once per second
// while connected. Caller must hold s.mu.
func (s *Session) startDurationTickerLocked() {
	stop := make(chan struct{})
	s.tickerStop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				if s.state == StateConnected {
					s.durationSecs++
				}
				s.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) failAndNotify(peerID, callID uuid.UUID, cause error) {
	log.Printf("Call Session (User %s): Call %s failed: %v", s.selfID, callID, cause)
	// Best-effort: the signaling channel may already be gone.
	s.signals.SendCallSignal(peerID, &Signal{
		CallID:    callID,
		Kind:      SignalReject,
		From:      s.selfID,
		To:        peerID,
		Reason:    ReasonError,
		Timestamp: models.JSONTime(time.Now()),
	})
	s.end(EndError)
}

// end transitions to the terminal state, releasing media, the peer
// connection, the ringer, and the duration ticker. Safe to call repeatedly.
func (s *Session) end(reason EndReason) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	wasRinging := s.state == StateRinging
	s.state = StateEnded
	s.endReason = reason
	s.durationSecs = 0
	s.pendingOffer = ""
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
	media := s.media
	pc := s.pc
	s.media = nil
	s.pc = nil
	s.mu.Unlock()

	if wasRinging && s.ringer != nil {
		s.ringer.Stop()
	}
	if media != nil {
		media.Stop()
	}
	if pc != nil {
		_ = pc.Close()
	}
}

// Reset returns an ended session to idle so the client can place or receive
// another call.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEnded {
		return
	}
	s.state = StateIdle
	s.endReason = EndNone
	s.callID = uuid.Nil
	s.peerID = uuid.Nil
	s.withVideo = false
}
