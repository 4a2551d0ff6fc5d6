package service

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventInput данные для создания слота
type EventInput struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    model.SlotStatus
}

// EventPatch частичное изменение слота; nil поля не меняются
type EventPatch struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus
}

// EventService управляет слотами владельца
type EventService struct {
	tx       Transactor
	slotRepo SlotRepository
	logger   *zap.Logger
}

func NewEventService(tx Transactor, slotRepo SlotRepository, logger *zap.Logger) *EventService {
	return &EventService{
		tx:       tx,
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// Create создаёт слот пользователя
func (s *EventService) Create(ctx context.Context, ownerID uuid.UUID, in EventInput) (*model.Slot, error) {
	if in.Status == "" {
		in.Status = model.SlotStatusBusy
	}

	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(in.Title),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    in.Status,
	}

	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, storageErr("create slot", err)
	}

	s.logger.Info("Slot created",
		zap.Stringer("slot_id", slot.ID),
		zap.Stringer("owner_id", ownerID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// ListMine получает все слоты пользователя
func (s *EventService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	slots, err := s.slotRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list slots", err)
	}
	return slots, nil
}

// Update меняет слот владельца. Слот в обмене менять нельзя.
func (s *EventService) Update(ctx context.Context, ownerID, slotID uuid.UUID, patch EventPatch) (*model.Slot, error) {
	var slot *model.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		slot, err = s.ownedForUpdate(ctx, ownerID, slotID)
		if err != nil {
			return err
		}

		if slot.Status == model.SlotStatusSwapPending {
			return Conflict("slot is part of a pending swap")
		}

		if patch.Title != nil {
			slot.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.StartTime != nil {
			slot.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			slot.EndTime = *patch.EndTime
		}
		if patch.Status != nil {
			slot.Status = *patch.Status
		}

		if err := validateSlot(slot); err != nil {
			return err
		}

		if err := s.slotRepo.Update(ctx, slot); err != nil {
			return storageErr("update slot", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.Stringer("slot_id", slot.ID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// Delete удаляет слот владельца
func (s *EventService) Delete(ctx context.Context, ownerID, slotID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.ownedForUpdate(ctx, ownerID, slotID)
		if err != nil {
			return err
		}

		if slot.Status == model.SlotStatusSwapPending {
			return Conflict("slot is part of a pending swap")
		}

		if err := s.slotRepo.Delete(ctx, slot.ID, slot.Version); err != nil {
			return storageErr("delete slot", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Stringer("slot_id", slotID),
		zap.Stringer("owner_id", ownerID),
	)

	return nil
}

// ownedForUpdate блокирует слот; чужой слот считается ненайденным
func (s *EventService) ownedForUpdate(ctx context.Context, ownerID, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.slotRepo.GetForUpdate(ctx, slotID)
	if err != nil {
		return nil, storageErr("get slot", err)
	}

	if slot == nil || slot.OwnerID != ownerID {
		return nil, NotFound("slot not found")
	}

	return slot, nil
}

func validateSlot(slot *model.Slot) error {
	if slot.Title == "" {
		return InvalidArgument("title is required")
	}
	if slot.StartTime.IsZero() || slot.EndTime.IsZero() {
		return InvalidArgument("start and end time are required")
	}
	if !slot.EndTime.After(slot.StartTime) {
		return InvalidArgument("end time must be after start time")
	}
	if !slot.Status.OwnerSettable() {
		return InvalidArgument("status must be BUSY or SWAPPABLE")
	}
	return nil
}
