// Package memory хранит пользователей, слоты и запросы в памяти процесса.
// Контракты совпадают с postgres-репозиториями: nil, nil для отсутствующих
// записей, repository.ErrStaleVersion при устаревшей версии.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
)

type txKey struct{}

type fault struct {
	skip int
	err  error
}

// Store сериализует транзакции одним мьютексом и откатывает снимок при ошибке
type Store struct {
	mu sync.Mutex

	users    map[uuid.UUID]model.User
	slots    map[uuid.UUID]model.Slot
	requests map[uuid.UUID]model.SwapRequest
	order    map[uuid.UUID]int64
	seq      int64

	faults map[string]*fault
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]model.User),
		slots:    make(map[uuid.UUID]model.Slot),
		requests: make(map[uuid.UUID]model.SwapRequest),
		order:    make(map[uuid.UUID]int64),
		faults:   make(map[string]*fault),
		now:      time.Now,
	}
}

type snapshot struct {
	users    map[uuid.UUID]model.User
	slots    map[uuid.UUID]model.Slot
	requests map[uuid.UUID]model.SwapRequest
	order    map[uuid.UUID]int64
	seq      int64
}

// WithinTx выполняет fn под блокировкой хранилища
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// InjectFault заставляет операцию op вернуть err после skip успешных вызовов (один раз).
// Имена операций: "users.create", "slots.update", "requests.create" и т.д.
func (s *Store) InjectFault(op string, skip int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{skip: skip, err: err}
}

func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Slots() *SlotRepository               { return &SlotRepository{s: s} }
func (s *Store) SwapRequests() *SwapRequestRepository { return &SwapRequestRepository{s: s} }

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock берёт мьютекс, если вызов не внутри транзакции
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) checkFault(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(s.faults, op)
	return f.err
}

func (s *Store) nextSeq(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:    make(map[uuid.UUID]model.User, len(s.users)),
		slots:    make(map[uuid.UUID]model.Slot, len(s.slots)),
		requests: make(map[uuid.UUID]model.SwapRequest, len(s.requests)),
		order:    make(map[uuid.UUID]int64, len(s.order)),
		seq:      s.seq,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.slots {
		snap.slots[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.order {
		snap.order[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.slots = snap.slots
	s.requests = snap.requests
	s.order = snap.order
	s.seq = snap.seq
}
