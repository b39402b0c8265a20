package call

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"

	"github.com/google/uuid"
)

// Registry is the server-side half of call signaling. It relays signals
// between the per-user broadcast channels, enforces one active call per
// user (a second invite is answered with an automatic busy rejection),
// times out unanswered rings, and records call outcomes to the call log.
type Registry struct {
	mu     sync.Mutex
	active map[uuid.UUID]uuid.UUID    // user -> call they are part of
	calls  map[uuid.UUID]*trackedCall // call id -> live call

	sender      SignalSender
	callStore   store.CallStore
	followStore store.FollowStore
	profiles    store.ProfileStore
	ringTimeout time.Duration
}

type trackedCall struct {
	id        uuid.UUID
	callerID  uuid.UUID
	calleeID  uuid.UUID
	withVideo bool
	connected bool
	ringTimer *time.Timer
}

// NewRegistry wires a Registry to its stores and signal transport.
func NewRegistry(sender SignalSender, cs store.CallStore, fs store.FollowStore, ps store.ProfileStore, ringTimeout time.Duration) *Registry {
	return &Registry{
		active:      make(map[uuid.UUID]uuid.UUID),
		calls:       make(map[uuid.UUID]*trackedCall),
		sender:      sender,
		callStore:   cs,
		followStore: fs,
		profiles:    ps,
		ringTimeout: ringTimeout,
	}
}

// HandleSignal processes a signal frame received from a connected client.
// from is the authenticated sender; the signal's From field is overwritten
// with it so clients cannot spoof each other.
func (r *Registry) HandleSignal(from uuid.UUID, sig *Signal) {
	sig.From = from
	sig.Timestamp = models.JSONTime(time.Now())

	switch sig.Kind {
	case SignalInvite:
		r.handleInvite(from, sig)
	case SignalAnswer:
		r.handleAnswer(from, sig)
	case SignalCandidate:
		r.relayToPeer(from, sig)
	case SignalReject:
		r.handleReject(from, sig)
	case SignalHangup:
		r.handleHangup(from, sig)
	default:
		log.Printf("Call Registry: Unknown signal kind %q from user %s", sig.Kind, from)
	}
}

func (r *Registry) handleInvite(from uuid.UUID, sig *Signal) {
	calleeID := sig.To
	ctx := context.Background()

	if calleeID == from || calleeID == uuid.Nil {
		r.rejectBack(from, sig.CallID, ReasonError)
		return
	}

	// Blocking in either direction disables call initiation outright.
	blocked, err := r.followStore.IsBlockedEither(ctx, from, calleeID)
	if err != nil {
		log.Printf("Call Registry: Block check failed for call %s: %v", sig.CallID, err)
		r.rejectBack(from, sig.CallID, ReasonError)
		return
	}
	if blocked {
		r.rejectBack(from, sig.CallID, ReasonBlocked)
		return
	}

	r.mu.Lock()
	if _, busy := r.active[calleeID]; busy {
		r.mu.Unlock()
		r.rejectBack(from, sig.CallID, ReasonBusy)
		return
	}
	if _, busy := r.active[from]; busy {
		r.mu.Unlock()
		r.rejectBack(from, sig.CallID, ReasonBusy)
		return
	}

	tc := &trackedCall{
		id:        sig.CallID,
		callerID:  from,
		calleeID:  calleeID,
		withVideo: sig.WithVideo,
	}
	tc.ringTimer = time.AfterFunc(r.ringTimeout, func() {
		r.timeoutCall(sig.CallID)
	})
	r.active[from] = sig.CallID
	r.active[calleeID] = sig.CallID
	r.calls[sig.CallID] = tc
	r.mu.Unlock()

	record := &models.CallRecord{
		ID:        sig.CallID,
		CallerID:  from,
		CalleeID:  calleeID,
		WithVideo: sig.WithVideo,
		Status:    models.CallRinging,
		StartedAt: time.Now(),
	}
	if err := r.callStore.CreateCallRecord(ctx, record); err != nil {
		log.Printf("Call Registry: Failed to record call %s: %v", sig.CallID, err)
	}

	// Attach the caller profile so the callee can render the prompt.
	if caller, err := r.profiles.GetProfileByID(ctx, from.String()); err == nil {
		sig.Caller = caller.ToPublicProfile()
	} else {
		log.Printf("Call Registry: Could not fetch caller profile %s: %v", from, err)
	}

	r.sender.SendCallSignal(calleeID, sig)
}

func (r *Registry) handleAnswer(from uuid.UUID, sig *Signal) {
	r.mu.Lock()
	tc, ok := r.calls[sig.CallID]
	if !ok || tc.calleeID != from {
		r.mu.Unlock()
		return
	}
	tc.connected = true
	if tc.ringTimer != nil {
		tc.ringTimer.Stop()
		tc.ringTimer = nil
	}
	callerID := tc.callerID
	r.mu.Unlock()

	if err := r.callStore.UpdateCallStatus(context.Background(), sig.CallID, models.CallConnected, nil); err != nil {
		log.Printf("Call Registry: Failed to mark call %s connected: %v", sig.CallID, err)
	}
	r.sender.SendCallSignal(callerID, sig)
}

func (r *Registry) handleReject(from uuid.UUID, sig *Signal) {
	peerID, ok := r.finishCall(sig.CallID, from)
	if !ok {
		return
	}
	if sig.Reason == "" {
		sig.Reason = ReasonDeclined
	}
	status := models.CallRejected
	if sig.Reason == ReasonError {
		status = models.CallFailed
	}
	now := time.Now()
	if err := r.callStore.UpdateCallStatus(context.Background(), sig.CallID, status, &now); err != nil {
		log.Printf("Call Registry: Failed to mark call %s %s: %v", sig.CallID, status, err)
	}
	r.sender.SendCallSignal(peerID, sig)
}

func (r *Registry) handleHangup(from uuid.UUID, sig *Signal) {
	peerID, ok := r.finishCall(sig.CallID, from)
	if !ok {
		return
	}
	now := time.Now()
	if err := r.callStore.UpdateCallStatus(context.Background(), sig.CallID, models.CallEnded, &now); err != nil {
		log.Printf("Call Registry: Failed to mark call %s ended: %v", sig.CallID, err)
	}
	r.sender.SendCallSignal(peerID, sig)
}

// relayToPeer forwards a mid-call signal to the other participant.
func (r *Registry) relayToPeer(from uuid.UUID, sig *Signal) {
	r.mu.Lock()
	tc, ok := r.calls[sig.CallID]
	if !ok {
		r.mu.Unlock()
		return
	}
	peerID := tc.callerID
	if from == tc.callerID {
		peerID = tc.calleeID
	} else if from != tc.calleeID {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.sender.SendCallSignal(peerID, sig)
}

// finishCall removes a live call from the registry and returns the peer of
// the acting user. Returns false when the call is unknown or the user is
// not a participant.
func (r *Registry) finishCall(callID, actor uuid.UUID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tc, ok := r.calls[callID]
	if !ok {
		return uuid.Nil, false
	}
	var peerID uuid.UUID
	switch actor {
	case tc.callerID:
		peerID = tc.calleeID
	case tc.calleeID:
		peerID = tc.callerID
	default:
		return uuid.Nil, false
	}
	if tc.ringTimer != nil {
		tc.ringTimer.Stop()
		tc.ringTimer = nil
	}
	delete(r.calls, callID)
	delete(r.active, tc.callerID)
	delete(r.active, tc.calleeID)
	return peerID, true
}

// timeoutCall fires when an invite rings unanswered past the configured
// timeout. Both sides receive a timeout rejection and the log records a
// missed call.
func (r *Registry) timeoutCall(callID uuid.UUID) {
	r.mu.Lock()
	tc, ok := r.calls[callID]
	if !ok || tc.connected {
		r.mu.Unlock()
		return
	}
	delete(r.calls, callID)
	delete(r.active, tc.callerID)
	delete(r.active, tc.calleeID)
	callerID, calleeID := tc.callerID, tc.calleeID
	r.mu.Unlock()

	log.Printf("Call Registry: Call %s rang unanswered for %v, timing out", callID, r.ringTimeout)

	now := time.Now()
	if err := r.callStore.UpdateCallStatus(context.Background(), callID, models.CallMissed, &now); err != nil {
		log.Printf("Call Registry: Failed to mark call %s missed: %v", callID, err)
	}

	for _, target := range []uuid.UUID{callerID, calleeID} {
		r.sender.SendCallSignal(target, &Signal{
			CallID:    callID,
			Kind:      SignalReject,
			To:        target,
			Reason:    ReasonTimeout,
			Timestamp: models.JSONTime(now),
		})
	}
}

// ReleaseUser ends any live call the user is part of, e.g. when their last
// websocket connection drops. The remaining peer receives a hangup.
func (r *Registry) ReleaseUser(userID uuid.UUID) {
	r.mu.Lock()
	callID, ok := r.active[userID]
	r.mu.Unlock()
	if !ok {
		return
	}

	peerID, ok := r.finishCall(callID, userID)
	if !ok {
		return
	}
	now := time.Now()
	if err := r.callStore.UpdateCallStatus(context.Background(), callID, models.CallEnded, &now); err != nil {
		log.Printf("Call Registry: Failed to mark call %s ended on disconnect: %v", callID, err)
	}
	r.sender.SendCallSignal(peerID, &Signal{
		CallID:    callID,
		Kind:      SignalHangup,
		From:      userID,
		To:        peerID,
		Timestamp: models.JSONTime(now),
	})
}

func (r *Registry) rejectBack(to uuid.UUID, callID uuid.UUID, reason string) {
	r.sender.SendCallSignal(to, &Signal{
		CallID:    callID,
		Kind:      SignalReject,
		To:        to,
		Reason:    reason,
		Timestamp: models.JSONTime(time.Now()),
	})
}
