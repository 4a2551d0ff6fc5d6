package service_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapService_ListSwappable_ExcludesOwnAndNonSwappable(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")

	f.slot(alice, "alice swappable", model.SlotStatusSwappable)
	bobSwappable := f.slot(bob, "bob swappable", model.SlotStatusSwappable)
	f.slot(bob, "bob busy", model.SlotStatusBusy)
	carolSwappable := f.slot(carol, "carol swappable", model.SlotStatusSwappable)

	slots, err := f.swaps.ListSwappable(f.ctx, alice)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, bobSwappable, slots[0].ID)
	assert.Equal(t, "bob", slots[0].OwnerName)
	assert.Equal(t, carolSwappable, slots[1].ID)
	for _, s := range slots {
		assert.NotEqual(t, alice, s.OwnerID)
		assert.Equal(t, model.SlotStatusSwappable, s.Status)
	}
}

func TestSwapService_ProposeSwap_LocksBothSlots(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)

	req := f.propose(alice, s1, s2)

	assert.Equal(t, model.SwapStatusPending, req.Status)
	assert.Equal(t, alice, req.FromUserID)
	assert.Equal(t, bob, req.ToUserID)
	assert.Equal(t, s1, req.MySlotID)
	assert.Equal(t, s2, req.TheirSlotID)

	assert.True(t, f.getSlot(s1).IsPendingFor(req.ID))
	assert.True(t, f.getSlot(s2).IsPendingFor(req.ID))
	assert.Len(t, f.notifier.proposed, 1)
	f.requirePendingInvariant()
}

func TestSwapService_ProposeSwap_BusySlotEntersPending(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusBusy)
	s2 := f.slot(bob, "S2", model.SlotStatusBusy)

	req := f.propose(alice, s1, s2)

	assert.Equal(t, model.SlotStatusSwapPending, f.getSlot(s1).Status)
	assert.Equal(t, model.SlotStatusSwapPending, f.getSlot(s2).Status)
	assert.Equal(t, model.SwapStatusPending, req.Status)
	f.requirePendingInvariant()
}

func TestSwapService_ProposeSwap_Errors(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	aliceSlot := f.slot(alice, "A", model.SlotStatusSwappable)
	aliceOther := f.slot(alice, "A2", model.SlotStatusSwappable)
	bobSlot := f.slot(bob, "B", model.SlotStatusSwappable)

	cases := []struct {
		name   string
		from   uuid.UUID
		mine   uuid.UUID
		theirs uuid.UUID
		kind   service.Kind
	}{
		{"missing my slot id", alice, uuid.Nil, bobSlot, service.KindInvalidArgument},
		{"missing their slot id", alice, aliceSlot, uuid.Nil, service.KindInvalidArgument},
		{"same slot", alice, aliceSlot, aliceSlot, service.KindInvalidArgument},
		{"unknown my slot", alice, uuid.New(), bobSlot, service.KindNotFound},
		{"unknown their slot", alice, aliceSlot, uuid.New(), service.KindNotFound},
		{"offering someone else's slot", alice, bobSlot, aliceSlot, service.KindForbidden},
		{"both slots are mine", alice, aliceSlot, aliceOther, service.KindInvalidArgument},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.swaps.ProposeSwap(f.ctx, tc.from, tc.mine, tc.theirs)
			require.Error(t, err)
			assert.Equal(t, tc.kind, service.KindOf(err))
		})
	}

	for _, id := range []uuid.UUID{aliceSlot, aliceOther, bobSlot} {
		assert.Equal(t, model.SlotStatusSwappable, f.getSlot(id).Status)
	}
	assert.Empty(t, f.notifier.proposed)
}

func TestSwapService_ProposeSwap_SlotAlreadyPending(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	s3 := f.slot(carol, "S3", model.SlotStatusSwappable)

	first := f.propose(alice, s1, s2)

	_, err := f.swaps.ProposeSwap(f.ctx, carol, s3, s2)
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))

	assert.Equal(t, model.SlotStatusSwappable, f.getSlot(s3).Status)
	assert.True(t, f.getSlot(s2).IsPendingFor(first.ID))
	f.requirePendingInvariant()
}

func TestSwapService_ResolveSwap_Accept(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	req := f.propose(alice, s1, s2)

	res, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, true)
	require.NoError(t, err)

	assert.Equal(t, service.OutcomeAccepted, res.Outcome)
	assert.Equal(t, model.SwapStatusAccepted, res.Request.Status)
	assert.NotNil(t, res.Request.RespondedAt)

	slot1, slot2 := f.getSlot(s1), f.getSlot(s2)
	assert.Equal(t, bob, slot1.OwnerID)
	assert.Equal(t, alice, slot2.OwnerID)
	assert.Equal(t, model.SlotStatusBusy, slot1.Status)
	assert.Equal(t, model.SlotStatusBusy, slot2.Status)
	assert.Equal(t, model.SwapStatusAccepted, f.getRequest(req.ID).Status)
	assert.Len(t, f.notifier.resolved, 1)
	f.requirePendingInvariant()
}

func TestSwapService_ResolveSwap_Reject(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusBusy)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	req := f.propose(alice, s1, s2)

	res, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, false)
	require.NoError(t, err)

	assert.Equal(t, service.OutcomeRejected, res.Outcome)

	slot1, slot2 := f.getSlot(s1), f.getSlot(s2)
	assert.Equal(t, alice, slot1.OwnerID)
	assert.Equal(t, bob, slot2.OwnerID)
	// Отклонение возвращает оба слота на рынок, даже если слот был BUSY
	assert.Equal(t, model.SlotStatusSwappable, slot1.Status)
	assert.Equal(t, model.SlotStatusSwappable, slot2.Status)
	assert.Equal(t, model.SwapStatusRejected, f.getRequest(req.ID).Status)
	f.requirePendingInvariant()
}

func TestSwapService_ResolveSwap_ForbiddenMutatesNothing(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	req := f.propose(alice, s1, s2)

	before1, before2 := f.getSlot(s1), f.getSlot(s2)

	for _, actor := range []uuid.UUID{alice, f.user("mallory")} {
		_, err := f.swaps.ResolveSwap(f.ctx, req.ID, actor, true)
		require.Error(t, err)
		assert.Equal(t, service.KindForbidden, service.KindOf(err))
	}

	assert.Equal(t, before1, f.getSlot(s1))
	assert.Equal(t, before2, f.getSlot(s2))
	assert.Equal(t, model.SwapStatusPending, f.getRequest(req.ID).Status)
	assert.Empty(t, f.notifier.resolved)
}

func TestSwapService_ResolveSwap_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.swaps.ResolveSwap(f.ctx, uuid.New(), f.user("bob"), true)
	require.Error(t, err)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestSwapService_ResolveSwap_SecondCallConflicts(t *testing.T) {
	for _, accept := range []bool{true, false} {
		f := newFixture(t)
		alice, bob := f.user("alice"), f.user("bob")
		s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
		s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
		req := f.propose(alice, s1, s2)

		_, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, accept)
		require.NoError(t, err)

		after1, after2 := f.getSlot(s1), f.getSlot(s2)

		for _, again := range []bool{true, false} {
			_, err = f.swaps.ResolveSwap(f.ctx, req.ID, bob, again)
			require.Error(t, err)
			assert.Equal(t, service.KindConflict, service.KindOf(err))
		}

		// Владельцы не меняются обратно
		assert.Equal(t, after1, f.getSlot(s1))
		assert.Equal(t, after2, f.getSlot(s2))
		assert.Len(t, f.notifier.resolved, 1)
	}
}

func TestSwapService_SlotReusableAfterResolution(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	s3 := f.slot(carol, "S3", model.SlotStatusSwappable)

	first := f.propose(alice, s1, s2)
	_, err := f.swaps.ResolveSwap(f.ctx, first.ID, bob, false)
	require.NoError(t, err)

	second := f.propose(carol, s3, s2)
	assert.Equal(t, bob, second.ToUserID)
	assert.True(t, f.getSlot(s2).IsPendingFor(second.ID))
	f.requirePendingInvariant()
}

func TestSwapService_ProposeSwap_RollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)

	// Первый слот обновится, второй нет
	f.store.InjectFault("slots.update", 1, errors.New("disk full"))

	_, err := f.swaps.ProposeSwap(f.ctx, alice, s1, s2)
	require.Error(t, err)
	assert.Equal(t, service.KindInternal, service.KindOf(err))

	for _, id := range []uuid.UUID{s1, s2} {
		slot := f.getSlot(id)
		assert.Equal(t, model.SlotStatusSwappable, slot.Status)
		assert.Nil(t, slot.PendingRequestID)
		assert.EqualValues(t, 1, slot.Version)
	}

	out, err := f.swaps.Outgoing(f.ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, f.notifier.proposed)
}

func TestSwapService_ResolveSwap_RollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	req := f.propose(alice, s1, s2)

	f.store.InjectFault("slots.update", 1, errors.New("connection reset"))

	_, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, true)
	require.Error(t, err)
	assert.Equal(t, service.KindInternal, service.KindOf(err))

	assert.Equal(t, model.SwapStatusPending, f.getRequest(req.ID).Status)
	assert.Equal(t, alice, f.getSlot(s1).OwnerID)
	assert.Equal(t, bob, f.getSlot(s2).OwnerID)
	f.requirePendingInvariant()

	// После сбоя запрос всё ещё можно принять
	res, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, true)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeAccepted, res.Outcome)
	assert.Equal(t, bob, f.getSlot(s1).OwnerID)
}

func TestSwapService_ConcurrentProposalsOnSameSlot(t *testing.T) {
	f := newFixture(t)
	target := f.slot(f.user("target"), "hot slot", model.SlotStatusSwappable)

	const n = 16
	type proposer struct{ user, slot uuid.UUID }
	proposers := make([]proposer, n)
	for i := range proposers {
		u := f.user(uuid.NewString()[:8])
		proposers[i] = proposer{user: u, slot: f.slot(u, "offer", model.SlotStatusSwappable)}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []uuid.UUID
		conflicts int
	)
	for _, p := range proposers {
		wg.Add(1)
		go func(p proposer) {
			defer wg.Done()
			req, err := f.swaps.ProposeSwap(f.ctx, p.user, p.slot, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if service.KindOf(err) == service.KindConflict {
					conflicts++
				}
				return
			}
			succeeded = append(succeeded, req.ID)
		}(p)
	}
	wg.Wait()

	require.Len(t, succeeded, 1)
	assert.Equal(t, n-1, conflicts)

	f.reqIDs = append(f.reqIDs, succeeded...)
	assert.True(t, f.getSlot(target).IsPendingFor(succeeded[0]))
	f.requirePendingInvariant()
}

func TestSwapService_IncomingOutgoing_NewestFirst(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		mine := f.slot(alice, "mine", model.SlotStatusSwappable)
		theirs := f.slot(bob, "theirs", model.SlotStatusSwappable)
		ids = append(ids, f.propose(alice, mine, theirs).ID)
	}

	incoming, err := f.swaps.Incoming(f.ctx, bob)
	require.NoError(t, err)
	require.Len(t, incoming, 3)
	assert.Equal(t, ids[2], incoming[0].ID)
	assert.Equal(t, ids[0], incoming[2].ID)
	assert.Equal(t, "alice", incoming[0].FromUser.Name)
	assert.Equal(t, "theirs", incoming[0].TheirSlot.Title)

	outgoing, err := f.swaps.Outgoing(f.ctx, alice)
	require.NoError(t, err)
	require.Len(t, outgoing, 3)
	assert.Equal(t, ids[2], outgoing[0].ID)

	none, err := f.swaps.Incoming(f.ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSwapService_AuditPending(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	live := f.propose(alice, s1, s2)

	// Слот, застрявший в SWAP_PENDING без запроса
	orphanReq := uuid.New()
	orphan := &model.Slot{
		ID:               uuid.New(),
		OwnerID:          alice,
		Title:            "orphan",
		StartTime:        f.getSlot(s1).StartTime,
		EndTime:          f.getSlot(s1).EndTime,
		Status:           model.SlotStatusSwapPending,
		PendingRequestID: &orphanReq,
	}
	require.NoError(t, f.store.Slots().Create(f.ctx, orphan))

	found, err := f.swaps.AuditPending(f.ctx, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, orphan.ID, found[0].ID)
	assert.Equal(t, model.SlotStatusSwapPending, f.getSlot(orphan.ID).Status)

	released, err := f.swaps.AuditPending(f.ctx, true)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, model.SlotStatusSwappable, f.getSlot(orphan.ID).Status)

	// Живой обмен не затронут
	assert.True(t, f.getSlot(s1).IsPendingFor(live.ID))
	assert.True(t, f.getSlot(s2).IsPendingFor(live.ID))
}
