package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/repository"
	"github.com/google/uuid"
)

type UserRepository struct{ s *Store }

// Create создаёт пользователя; email уникален
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("users.create"); err != nil {
		return err
	}

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}

	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	r.s.nextSeq(user.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("users.get"); err != nil {
		return nil, err
	}

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("users.get"); err != nil {
		return nil, err
	}

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID *int64) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("users.update"); err != nil {
		return err
	}

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TelegramChatID = cloneInt64(chatID)
	r.s.users[id] = u
	return nil
}

type SlotRepository struct{ s *Store }

func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.create"); err != nil {
		return err
	}

	now := r.s.now()
	slot.Version = 1
	slot.CreatedAt = now
	slot.UpdatedAt = now
	r.s.slots[slot.ID] = *cloneSlot(*slot)
	r.s.nextSeq(slot.ID)
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.get"); err != nil {
		return nil, err
	}

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	return cloneSlot(slot), nil
}

// GetForUpdate в памяти совпадает с GetByID: транзакция уже держит мьютекс
func (r *SlotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return r.GetByID(ctx, id)
}

func (r *SlotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	return r.list(ctx, func(s model.Slot) bool { return s.OwnerID == ownerID }, false)
}

func (r *SlotRepository) ListSwappable(ctx context.Context, excludeOwnerID uuid.UUID) ([]*model.Slot, error) {
	return r.list(ctx, func(s model.Slot) bool {
		return s.Status == model.SlotStatusSwappable && s.OwnerID != excludeOwnerID
	}, true)
}

func (r *SlotRepository) ListStalePending(ctx context.Context) ([]*model.Slot, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.list"); err != nil {
		return nil, err
	}

	var out []*model.Slot
	for _, slot := range r.s.slots {
		if slot.Status != model.SlotStatusSwapPending {
			continue
		}
		if slot.PendingRequestID != nil {
			if req, ok := r.s.requests[*slot.PendingRequestID]; ok && req.Status == model.SwapStatusPending {
				continue
			}
		}
		out = append(out, cloneSlot(slot))
	}
	r.sortByOrder(out)
	return out, nil
}

func (r *SlotRepository) list(ctx context.Context, match func(model.Slot) bool, withOwner bool) ([]*model.Slot, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.list"); err != nil {
		return nil, err
	}

	var out []*model.Slot
	for _, slot := range r.s.slots {
		if !match(slot) {
			continue
		}
		c := cloneSlot(slot)
		if withOwner {
			c.OwnerName = r.s.users[slot.OwnerID].Name
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return r.s.order[out[i].ID] < r.s.order[out[j].ID]
	})
	return out, nil
}

func (r *SlotRepository) sortByOrder(slots []*model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return r.s.order[slots[i].ID] < r.s.order[slots[j].ID]
	})
}

// Update сохраняет слот при совпадении версии
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.update"); err != nil {
		return err
	}

	stored, ok := r.s.slots[slot.ID]
	if !ok || stored.Version != slot.Version {
		return repository.ErrStaleVersion
	}

	slot.Version++
	slot.UpdatedAt = r.s.now()
	c := cloneSlot(*slot)
	c.OwnerName = ""
	r.s.slots[slot.ID] = *c
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("slots.delete"); err != nil {
		return err
	}

	stored, ok := r.s.slots[id]
	if !ok || stored.Version != version {
		return repository.ErrStaleVersion
	}

	delete(r.s.slots, id)
	delete(r.s.order, id)
	// Каскадное удаление, как ON DELETE CASCADE в postgres
	for reqID, req := range r.s.requests {
		if req.References(id) {
			delete(r.s.requests, reqID)
			delete(r.s.order, reqID)
		}
	}
	return nil
}

type SwapRequestRepository struct{ s *Store }

func (r *SwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("requests.create"); err != nil {
		return err
	}

	req.CreatedAt = r.s.now()
	r.s.requests[req.ID] = *cloneRequest(*req)
	r.s.nextSeq(req.ID)
	return nil
}

func (r *SwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("requests.get"); err != nil {
		return nil, err
	}

	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return cloneRequest(req), nil
}

func (r *SwapRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	return r.GetByID(ctx, id)
}

// Resolve меняет статус только у PENDING запроса
func (r *SwapRequestRepository) Resolve(ctx context.Context, req *model.SwapRequest) error {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("requests.resolve"); err != nil {
		return err
	}

	stored, ok := r.s.requests[req.ID]
	if !ok || stored.Status != model.SwapStatusPending {
		return repository.ErrStaleVersion
	}

	now := r.s.now()
	req.RespondedAt = &now
	stored.Status = req.Status
	stored.RespondedAt = &now
	r.s.requests[req.ID] = stored
	return nil
}

func (r *SwapRequestRepository) ListIncoming(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.listDetailed(ctx, func(req model.SwapRequest) bool { return req.ToUserID == userID })
}

func (r *SwapRequestRepository) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.listDetailed(ctx, func(req model.SwapRequest) bool { return req.FromUserID == userID })
}

func (r *SwapRequestRepository) listDetailed(ctx context.Context, match func(model.SwapRequest) bool) ([]*model.SwapRequest, error) {
	defer r.s.lock(ctx)()
	if err := r.s.checkFault("requests.list"); err != nil {
		return nil, err
	}

	var out []*model.SwapRequest
	for _, req := range r.s.requests {
		if !match(req) {
			continue
		}
		c := cloneRequest(req)
		c.MySlot = r.slotSummary(req.MySlotID)
		c.TheirSlot = r.slotSummary(req.TheirSlotID)
		c.FromUser = r.userSummary(req.FromUserID)
		c.ToUser = r.userSummary(req.ToUserID)
		out = append(out, c)
	}

	// Новые первыми
	sort.Slice(out, func(i, j int) bool {
		return r.s.order[out[i].ID] > r.s.order[out[j].ID]
	})
	return out, nil
}

func (r *SwapRequestRepository) slotSummary(id uuid.UUID) *model.SlotSummary {
	slot, ok := r.s.slots[id]
	if !ok {
		return nil
	}
	return slot.Summary()
}

func (r *SwapRequestRepository) userSummary(id uuid.UUID) *model.UserSummary {
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	return &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func cloneUser(u model.User) *model.User {
	u.TelegramChatID = cloneInt64(u.TelegramChatID)
	return &u
}

func cloneSlot(s model.Slot) *model.Slot {
	if s.PendingRequestID != nil {
		id := *s.PendingRequestID
		s.PendingRequestID = &id
	}
	return &s
}

func cloneRequest(r model.SwapRequest) *model.SwapRequest {
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		r.RespondedAt = &t
	}
	r.MySlot, r.TheirSlot, r.FromUser, r.ToUser = nil, nil, nil, nil
	return &r
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
