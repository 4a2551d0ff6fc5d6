package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/repository"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	stale := fmt.Errorf("update: %w", repository.ErrStaleVersion)

	assert.Equal(t, service.KindConflict, service.KindOf(stale))
	assert.Equal(t, "record was modified concurrently", service.MessageOf(stale))

	assert.Equal(t, service.KindInternal, service.KindOf(errors.New("boom")))
	assert.Equal(t, "internal error", service.MessageOf(errors.New("boom")))

	assert.Equal(t, service.KindForbidden, service.KindOf(fmt.Errorf("wrap: %w", service.Forbidden("no"))))
}

func TestSwapService_ResolveSwap_StaleRequestIsConflict(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	s1 := f.slot(alice, "S1", model.SlotStatusSwappable)
	s2 := f.slot(bob, "S2", model.SlotStatusSwappable)
	req := f.propose(alice, s1, s2)

	// Запрос изменился между чтением и записью
	f.store.InjectFault("requests.resolve", 0, repository.ErrStaleVersion)

	_, err := f.swaps.ResolveSwap(f.ctx, req.ID, bob, true)
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
	assert.Equal(t, "record was modified concurrently", service.MessageOf(err))
	assert.ErrorIs(t, err, repository.ErrStaleVersion)

	assert.Equal(t, model.SwapStatusPending, f.getRequest(req.ID).Status)
	assert.Equal(t, alice, f.getSlot(s1).OwnerID)
	f.requirePendingInvariant()
}
