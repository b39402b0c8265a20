package call

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeSignalSender) signalsTo(userID uuid.UUID) []*Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Signal
	for i, target := range f.targets {
		if target == userID {
			out = append(out, f.signals[i])
		}
	}
	return out
}

type fakeCallStore struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*models.CallRecord
	statuses map[uuid.UUID]models.CallStatus
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{
		records:  make(map[uuid.UUID]*models.CallRecord),
		statuses: make(map[uuid.UUID]models.CallStatus),
	}
}

func (f *fakeCallStore) CreateCallRecord(ctx context.Context, record *models.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record
	f.statuses[record.ID] = record.Status
	return nil
}

func (f *fakeCallStore) UpdateCallStatus(ctx context.Context, callID uuid.UUID, status models.CallStatus, endedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[callID]; !ok {
		return store.ErrCallNotFound
	}
	f.statuses[callID] = status
	return nil
}

func (f *fakeCallStore) ListRecentCalls(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CallRecord, error) {
	return nil, nil
}

func (f *fakeCallStore) status(callID uuid.UUID) models.CallStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[callID]
}

type fakeFollowStore struct {
	mu      sync.Mutex
	blocked map[[2]uuid.UUID]bool
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{blocked: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeFollowStore) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	return nil
}

func (f *fakeFollowStore) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	return nil
}

func (f *fakeFollowStore) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeFollowStore) FollowingSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}

func (f *fakeFollowStore) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[[2]uuid.UUID{blockerID, blockedID}] = true
	return nil
}

func (f *fakeFollowStore) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return nil
}

func (f *fakeFollowStore) IsBlockedEither(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked[[2]uuid.UUID{userA, userB}] || f.blocked[[2]uuid.UUID{userB, userA}], nil
}

type fakeProfileStore struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfileStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return nil
}

func (f *fakeProfileStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return nil, store.ErrProfileNotFound
}

func (f *fakeProfileStore) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, store.ErrProfileNotFound
}

func (f *fakeProfileStore) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	return nil, nil
}

type registryFixture struct {
	registry *Registry
	sender   *fakeSignalSender
	calls    *fakeCallStore
	follows  *fakeFollowStore
	caller   uuid.UUID
	callee   uuid.UUID
}

func newRegistryFixture(ringTimeout time.Duration) *registryFixture {
	f := &registryFixture{
		sender:  &fakeSignalSender{},
		calls:   newFakeCallStore(),
		follows: newFakeFollowStore(),
		caller:  uuid.New(),
		callee:  uuid.New(),
	}
	profiles := &fakeProfileStore{profiles: map[string]*models.Profile{
		f.caller.String(): {ID: f.caller, Username: "caller", FullName: "Caller User"},
		f.callee.String(): {ID: f.callee, Username: "callee", FullName: "Callee User"},
	}}
	f.registry = NewRegistry(f.sender, f.calls, f.follows, profiles, ringTimeout)
	return f
}

func (f *registryFixture) invite() uuid.UUID {
	callID := uuid.New()
	f.registry.HandleSignal(f.caller, &Signal{
		CallID:    callID,
		Kind:      SignalInvite,
		To:        f.callee,
		WithVideo: true,
		SDP:       "offer-sdp",
	})
	return callID
}

func TestRegistryInviteRelaysToCallee(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()

	toCallee := f.sender.signalsTo(f.callee)
	require.Len(t, toCallee, 1)
	sig := toCallee[0]
	assert.Equal(t, SignalInvite, sig.Kind)
	assert.Equal(t, callID, sig.CallID)
	assert.Equal(t, f.caller, sig.From)
	assert.True(t, sig.WithVideo)
	require.NotNil(t, sig.Caller)
	assert.Equal(t, "caller", sig.Caller.Username)

	assert.Equal(t, models.CallRinging, f.calls.status(callID))
}

// The From field of an incoming frame is overwritten with the authenticated
// user, so a client cannot signal on someone else's behalf.
func TestRegistryOverwritesSpoofedFrom(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	impostor := uuid.New()

	f.registry.HandleSignal(f.caller, &Signal{
		CallID: uuid.New(),
		Kind:   SignalInvite,
		From:   impostor,
		To:     f.callee,
	})

	toCallee := f.sender.signalsTo(f.callee)
	require.Len(t, toCallee, 1)
	assert.Equal(t, f.caller, toCallee[0].From)
}

func TestRegistryInviteToBlockedUserIsRejected(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	require.NoError(t, f.follows.Block(context.Background(), f.callee, f.caller))

	callID := f.invite()

	assert.Empty(t, f.sender.signalsTo(f.callee))
	toCaller := f.sender.signalsTo(f.caller)
	require.Len(t, toCaller, 1)
	assert.Equal(t, SignalReject, toCaller[0].Kind)
	assert.Equal(t, ReasonBlocked, toCaller[0].Reason)
	assert.Equal(t, callID, toCaller[0].CallID)
}

func TestRegistrySelfInviteIsRejected(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	f.registry.HandleSignal(f.caller, &Signal{CallID: uuid.New(), Kind: SignalInvite, To: f.caller})

	toCaller := f.sender.signalsTo(f.caller)
	require.Len(t, toCaller, 1)
	assert.Equal(t, SignalReject, toCaller[0].Kind)
	assert.Equal(t, ReasonError, toCaller[0].Reason)
}

func TestRegistryBusyCalleeRejectsSecondInvite(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	f.invite()

	other := uuid.New()
	secondCall := uuid.New()
	f.registry.HandleSignal(other, &Signal{CallID: secondCall, Kind: SignalInvite, To: f.callee})

	toOther := f.sender.signalsTo(other)
	require.Len(t, toOther, 1)
	assert.Equal(t, SignalReject, toOther[0].Kind)
	assert.Equal(t, ReasonBusy, toOther[0].Reason)
	assert.Equal(t, secondCall, toOther[0].CallID)

	// The callee still only received the first invite.
	assert.Len(t, f.sender.signalsTo(f.callee), 1)
}

func TestRegistryAnswerConnectsAndRelays(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()

	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalAnswer, SDP: "answer-sdp"})

	toCaller := f.sender.signalsTo(f.caller)
	require.Len(t, toCaller, 1)
	assert.Equal(t, SignalAnswer, toCaller[0].Kind)
	assert.Equal(t, "answer-sdp", toCaller[0].SDP)
	assert.Equal(t, models.CallConnected, f.calls.status(callID))
}

// Only the invited callee can answer; a third party's answer is dropped.
func TestRegistryIgnoresAnswerFromNonParticipant(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()

	f.registry.HandleSignal(uuid.New(), &Signal{CallID: callID, Kind: SignalAnswer, SDP: "hijack"})

	assert.Empty(t, f.sender.signalsTo(f.caller))
	assert.Equal(t, models.CallRinging, f.calls.status(callID))
}

func TestRegistryRelaysCandidatesBothWays(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()

	f.registry.HandleSignal(f.caller, &Signal{CallID: callID, Kind: SignalCandidate, Candidate: "from-caller"})
	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalCandidate, Candidate: "from-callee"})
	f.registry.HandleSignal(uuid.New(), &Signal{CallID: callID, Kind: SignalCandidate, Candidate: "from-stranger"})

	calleeSignals := f.sender.signalsTo(f.callee)
	require.Len(t, calleeSignals, 2) // invite + candidate
	assert.Equal(t, "from-caller", calleeSignals[1].Candidate)

	callerSignals := f.sender.signalsTo(f.caller)
	require.Len(t, callerSignals, 1)
	assert.Equal(t, "from-callee", callerSignals[0].Candidate)
}

func TestRegistryRejectFreesBothUsers(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()

	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalReject})

	toCaller := f.sender.signalsTo(f.caller)
	require.Len(t, toCaller, 1)
	assert.Equal(t, SignalReject, toCaller[0].Kind)
	assert.Equal(t, ReasonDeclined, toCaller[0].Reason)
	assert.Equal(t, models.CallRejected, f.calls.status(callID))

	// Both participants can be called again.
	secondCall := f.invite()
	require.Len(t, f.sender.signalsTo(f.callee), 2)
	assert.Equal(t, models.CallRinging, f.calls.status(secondCall))
}

func TestRegistryHangupEndsCall(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()
	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalAnswer, SDP: "answer"})

	f.registry.HandleSignal(f.caller, &Signal{CallID: callID, Kind: SignalHangup})

	calleeSignals := f.sender.signalsTo(f.callee)
	require.Len(t, calleeSignals, 2) // invite + hangup
	assert.Equal(t, SignalHangup, calleeSignals[1].Kind)
	assert.Equal(t, models.CallEnded, f.calls.status(callID))

	// A duplicate hangup for the finished call is dropped.
	f.registry.HandleSignal(f.caller, &Signal{CallID: callID, Kind: SignalHangup})
	assert.Len(t, f.sender.signalsTo(f.callee), 2)
}

func TestRegistryUnansweredCallTimesOut(t *testing.T) {
	f := newRegistryFixture(20 * time.Millisecond)
	callID := f.invite()

	require.Eventually(t, func() bool {
		return f.calls.status(callID) == models.CallMissed
	}, time.Second, 5*time.Millisecond)

	// Both sides hear the timeout.
	assert.Eventually(t, func() bool {
		toCaller := f.sender.signalsTo(f.caller)
		toCallee := f.sender.signalsTo(f.callee)
		return len(toCaller) == 1 && toCaller[0].Reason == ReasonTimeout &&
			len(toCallee) == 2 && toCallee[1].Reason == ReasonTimeout
	}, time.Second, 5*time.Millisecond)

	// The registry forgot the call, so both users are callable again.
	secondCall := f.invite()
	assert.Equal(t, models.CallRinging, f.calls.status(secondCall))
}

func TestRegistryAnswerCancelsRingTimeout(t *testing.T) {
	f := newRegistryFixture(30 * time.Millisecond)
	callID := f.invite()
	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalAnswer, SDP: "answer"})

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, models.CallConnected, f.calls.status(callID))
}

func TestRegistryReleaseUserHangsUpForPeer(t *testing.T) {
	f := newRegistryFixture(time.Minute)
	callID := f.invite()
	f.registry.HandleSignal(f.callee, &Signal{CallID: callID, Kind: SignalAnswer, SDP: "answer"})

	f.registry.ReleaseUser(f.caller)

	calleeSignals := f.sender.signalsTo(f.callee)
	require.Len(t, calleeSignals, 2)
	hangup := calleeSignals[1]
	assert.Equal(t, SignalHangup, hangup.Kind)
	assert.Equal(t, f.caller, hangup.From)
	assert.Equal(t, models.CallEnded, f.calls.status(callID))

	// Releasing a user with no live call is a no-op.
	f.registry.ReleaseUser(f.caller)
	assert.Len(t, f.sender.signalsTo(f.callee), 2)
}
