package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/repository/memory"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu       sync.Mutex
	proposed []*model.SwapRequest
	resolved []*service.Resolution
}

func (n *recordingNotifier) SwapProposed(_ context.Context, req *model.SwapRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proposed = append(n.proposed, req)
}

func (n *recordingNotifier) SwapResolved(_ context.Context, res *service.Resolution) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, res)
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	swaps    *service.SwapService
	events   *service.EventService
	notifier *recordingNotifier
	slotIDs  []uuid.UUID
	reqIDs   []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	notifier := &recordingNotifier{}
	logger := zap.NewNop()

	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		swaps:    service.NewSwapService(store, store.Slots(), store.SwapRequests(), notifier, logger),
		events:   service.NewEventService(store, store.Slots(), logger),
		notifier: notifier,
	}
}

func (f *fixture) user(name string) uuid.UUID {
	f.t.Helper()
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u.ID
}

func (f *fixture) slot(owner uuid.UUID, title string, status model.SlotStatus) uuid.UUID {
	f.t.Helper()
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC).Add(time.Duration(len(f.slotIDs)) * time.Hour)
	s := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	}
	require.NoError(f.t, f.store.Slots().Create(f.ctx, s))
	f.slotIDs = append(f.slotIDs, s.ID)
	return s.ID
}

func (f *fixture) getSlot(id uuid.UUID) *model.Slot {
	f.t.Helper()
	s, err := f.store.Slots().GetByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, s)
	return s
}

func (f *fixture) getRequest(id uuid.UUID) *model.SwapRequest {
	f.t.Helper()
	r, err := f.store.SwapRequests().GetByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, r)
	return r
}

func (f *fixture) propose(from, mine, theirs uuid.UUID) *model.SwapRequest {
	f.t.Helper()
	req, err := f.swaps.ProposeSwap(f.ctx, from, mine, theirs)
	require.NoError(f.t, err)
	f.reqIDs = append(f.reqIDs, req.ID)
	return req
}

// requirePendingInvariant: слот в SWAP_PENDING тогда и только тогда,
// когда на него ссылается PENDING запрос
func (f *fixture) requirePendingInvariant() {
	f.t.Helper()

	pendingRefs := make(map[uuid.UUID]uuid.UUID)
	for _, id := range f.reqIDs {
		req, err := f.store.SwapRequests().GetByID(f.ctx, id)
		require.NoError(f.t, err)
		if req == nil || !req.IsPending() {
			continue
		}
		for _, slotID := range []uuid.UUID{req.MySlotID, req.TheirSlotID} {
			_, dup := pendingRefs[slotID]
			require.False(f.t, dup, "slot %s referenced by two pending requests", slotID)
			pendingRefs[slotID] = req.ID
		}
	}

	for _, id := range f.slotIDs {
		slot, err := f.store.Slots().GetByID(f.ctx, id)
		require.NoError(f.t, err)
		if slot == nil {
			continue
		}
		reqID, referenced := pendingRefs[id]
		if slot.Status == model.SlotStatusSwapPending {
			require.True(f.t, referenced, "slot %s pending without a pending request", id)
			require.True(f.t, slot.IsPendingFor(reqID))
		} else {
			require.False(f.t, referenced, "slot %s referenced by pending request but status %s", id, slot.Status)
			require.Nil(f.t, slot.PendingRequestID)
		}
	}
}
