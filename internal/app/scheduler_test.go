package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAuditor struct {
	mu     sync.Mutex
	calls  int
	repair []bool
	err    error
}

func (f *fakeAuditor) AuditPending(_ context.Context, repair bool) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.repair = append(f.repair, repair)
	if f.err != nil {
		return nil, f.err
	}
	return []*model.Slot{{ID: uuid.New(), Status: model.SlotStatusSwapPending}}, nil
}

func (f *fakeAuditor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_RunsAuditImmediatelyAndOnTick(t *testing.T) {
	auditor := &fakeAuditor{}
	s := NewScheduler(auditor, 10*time.Millisecond, true, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return auditor.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	auditor.mu.Lock()
	defer auditor.mu.Unlock()
	for _, r := range auditor.repair {
		assert.True(t, r)
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	auditor := &fakeAuditor{err: errors.New("db down")}
	s := NewScheduler(auditor, time.Hour, false, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return auditor.Calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(&fakeAuditor{}, time.Hour, false, zap.NewNop())
	s.Stop()
	s.Stop()
}
