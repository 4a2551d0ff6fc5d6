package service

import (
	"context"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
)

// Transactor выполняет функцию в одной транзакции хранилища
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error)
	ListSwappable(ctx context.Context, excludeOwnerID uuid.UUID) ([]*model.Slot, error)
	ListStalePending(ctx context.Context) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id uuid.UUID, version int64) error
}

type SwapRequestRepository interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	Resolve(ctx context.Context, req *model.SwapRequest) error
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID *int64) error
}

// SwapNotifier получает события после фиксации транзакции
type SwapNotifier interface {
	SwapProposed(ctx context.Context, req *model.SwapRequest)
	SwapResolved(ctx context.Context, res *Resolution)
}

type noopNotifier struct{}

func (noopNotifier) SwapProposed(context.Context, *model.SwapRequest) {}
func (noopNotifier) SwapResolved(context.Context, *Resolution)        {}
