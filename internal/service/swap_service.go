package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/Freeeeeet/slot_swap/internal/service")

// Outcome итог ответа на запрос обмена
type Outcome string

const (
	OutcomeAccepted Outcome = "Accepted"
	OutcomeRejected Outcome = "Rejected"
)

// Resolution результат ResolveSwap вместе с изменёнными сущностями
type Resolution struct {
	Outcome   Outcome
	Request   *model.SwapRequest
	MySlot    *model.Slot
	TheirSlot *model.Slot
}

// SwapService координирует обмен слотами между пользователями
type SwapService struct {
	tx          Transactor
	slotRepo    SlotRepository
	requestRepo SwapRequestRepository
	notifier    SwapNotifier
	logger      *zap.Logger
}

func NewSwapService(
	tx Transactor,
	slotRepo SlotRepository,
	requestRepo SwapRequestRepository,
	notifier SwapNotifier,
	logger *zap.Logger,
) *SwapService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SwapService{
		tx:          tx,
		slotRepo:    slotRepo,
		requestRepo: requestRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// ListSwappable получает слоты других пользователей, открытые для обмена
func (s *SwapService) ListSwappable(ctx context.Context, userID uuid.UUID) ([]*model.Slot, error) {
	slots, err := s.slotRepo.ListSwappable(ctx, userID)
	if err != nil {
		return nil, storageErr("list swappable slots", err)
	}
	return slots, nil
}

// ProposeSwap создаёт запрос на обмен и блокирует оба слота
func (s *SwapService) ProposeSwap(ctx context.Context, fromUserID, mySlotID, theirSlotID uuid.UUID) (_ *model.SwapRequest, err error) {
	ctx, span := tracer.Start(ctx, "SwapService.ProposeSwap", trace.WithAttributes(
		attribute.String("user.id", fromUserID.String()),
		attribute.String("slot.mine", mySlotID.String()),
		attribute.String("slot.theirs", theirSlotID.String()),
	))
	defer func() { endSpan(span, err) }()

	if mySlotID == uuid.Nil || theirSlotID == uuid.Nil {
		return nil, InvalidArgument("missing slot IDs")
	}
	if mySlotID == theirSlotID {
		return nil, InvalidArgument("cannot swap a slot with itself")
	}

	var req *model.SwapRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		mySlot, theirSlot, err := s.lockPair(ctx, mySlotID, theirSlotID)
		if err != nil {
			return err
		}

		if mySlot == nil || theirSlot == nil {
			return NotFound("slot not found")
		}

		if mySlot.OwnerID != fromUserID {
			return Forbidden("you can only offer your own slot")
		}

		if theirSlot.OwnerID == fromUserID {
			return InvalidArgument("cannot request a swap with your own slot")
		}

		// Слот может участвовать только в одном незавершённом обмене
		if mySlot.Status == model.SlotStatusSwapPending || theirSlot.Status == model.SlotStatusSwapPending {
			return Conflict("slot is already part of a pending swap")
		}

		req = &model.SwapRequest{
			ID:          uuid.New(),
			MySlotID:    mySlot.ID,
			TheirSlotID: theirSlot.ID,
			FromUserID:  fromUserID,
			ToUserID:    theirSlot.OwnerID,
			Status:      model.SwapStatusPending,
		}

		if err := s.requestRepo.Create(ctx, req); err != nil {
			return storageErr("create swap request", err)
		}

		for _, slot := range []*model.Slot{mySlot, theirSlot} {
			slot.MarkPending(req.ID)
			if err := s.slotRepo.Update(ctx, slot); err != nil {
				return storageErr("lock slot for swap", err)
			}
		}

		req.MySlot = mySlot.Summary()
		req.TheirSlot = theirSlot.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap proposed",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("from_user_id", req.FromUserID),
		zap.Stringer("to_user_id", req.ToUserID),
		zap.Stringer("my_slot_id", req.MySlotID),
		zap.Stringer("their_slot_id", req.TheirSlotID),
	)

	s.notifier.SwapProposed(ctx, req)

	return req, nil
}

// ResolveSwap принимает или отклоняет запрос; отвечать может только получатель
func (s *SwapService) ResolveSwap(ctx context.Context, requestID, respondingUserID uuid.UUID, accept bool) (_ *Resolution, err error) {
	ctx, span := tracer.Start(ctx, "SwapService.ResolveSwap", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("user.id", respondingUserID.String()),
		attribute.Bool("accept", accept),
	))
	defer func() { endSpan(span, err) }()

	var res *Resolution
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return storageErr("get swap request", err)
		}

		if req == nil {
			return NotFound("swap request not found")
		}

		if req.ToUserID != respondingUserID {
			return Forbidden("only the recipient can respond to this request")
		}

		if !req.IsPending() {
			return Conflict(fmt.Sprintf("swap request already %s", strings.ToLower(string(req.Status))))
		}

		mySlot, theirSlot, err := s.lockPair(ctx, req.MySlotID, req.TheirSlotID)
		if err != nil {
			return err
		}

		if mySlot == nil || theirSlot == nil {
			return Conflict("swap slot no longer exists")
		}

		if !mySlot.IsPendingFor(req.ID) || !theirSlot.IsPendingFor(req.ID) {
			return Conflict("slots are no longer pending for this request")
		}

		res = &Resolution{Request: req, MySlot: mySlot, TheirSlot: theirSlot}

		if accept {
			if mySlot.OwnerID != req.FromUserID || theirSlot.OwnerID != req.ToUserID {
				return Conflict("slot ownership changed since the request was made")
			}

			mySlot.OwnerID, theirSlot.OwnerID = theirSlot.OwnerID, mySlot.OwnerID
			mySlot.Release(model.SlotStatusBusy)
			theirSlot.Release(model.SlotStatusBusy)
			req.Status = model.SwapStatusAccepted
			res.Outcome = OutcomeAccepted
		} else {
			mySlot.Release(model.SlotStatusSwappable)
			theirSlot.Release(model.SlotStatusSwappable)
			req.Status = model.SwapStatusRejected
			res.Outcome = OutcomeRejected
		}

		if err := s.requestRepo.Resolve(ctx, req); err != nil {
			return storageErr("resolve swap request", err)
		}

		for _, slot := range []*model.Slot{mySlot, theirSlot} {
			if err := s.slotRepo.Update(ctx, slot); err != nil {
				return storageErr("update swapped slot", err)
			}
		}

		req.MySlot = mySlot.Summary()
		req.TheirSlot = theirSlot.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap resolved",
		zap.Stringer("request_id", res.Request.ID),
		zap.String("outcome", string(res.Outcome)),
		zap.Stringer("responding_user_id", respondingUserID),
	)

	s.notifier.SwapResolved(ctx, res)

	return res, nil
}

// Incoming получает запросы, адресованные пользователю
func (s *SwapService) Incoming(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	requests, err := s.requestRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, storageErr("list incoming requests", err)
	}
	return requests, nil
}

// Outgoing получает запросы, отправленные пользователем
func (s *SwapService) Outgoing(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	requests, err := s.requestRepo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, storageErr("list outgoing requests", err)
	}
	return requests, nil
}

// AuditPending находит слоты в SWAP_PENDING без живого запроса.
// При repair такие слоты возвращаются в SWAPPABLE.
func (s *SwapService) AuditPending(ctx context.Context, repair bool) ([]*model.Slot, error) {
	stale, err := s.slotRepo.ListStalePending(ctx)
	if err != nil {
		return nil, storageErr("list stale pending slots", err)
	}

	if !repair {
		return stale, nil
	}

	var released []*model.Slot
	for _, candidate := range stale {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			slot, err := s.slotRepo.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return storageErr("lock slot", err)
			}
			if slot == nil || slot.Status != model.SlotStatusSwapPending {
				return nil
			}

			if slot.PendingRequestID != nil {
				req, err := s.requestRepo.GetByID(ctx, *slot.PendingRequestID)
				if err != nil {
					return storageErr("get swap request", err)
				}
				if req != nil && req.IsPending() && req.References(slot.ID) {
					return nil
				}
			}

			slot.Release(model.SlotStatusSwappable)
			if err := s.slotRepo.Update(ctx, slot); err != nil {
				return storageErr("release slot", err)
			}
			released = append(released, slot)
			return nil
		})
		if err != nil {
			return released, err
		}
	}

	if len(released) > 0 {
		s.logger.Warn("Released stale pending slots", zap.Int("count", len(released)))
	}

	return released, nil
}

// lockPair блокирует два слота в порядке возрастания ID, чтобы встречные обмены не взаимоблокировались
func (s *SwapService) lockPair(ctx context.Context, firstID, secondID uuid.UUID) (*model.Slot, *model.Slot, error) {
	ids := []uuid.UUID{firstID, secondID}
	if bytes.Compare(firstID[:], secondID[:]) > 0 {
		ids[0], ids[1] = secondID, firstID
	}

	locked := make(map[uuid.UUID]*model.Slot, 2)
	for _, id := range ids {
		slot, err := s.slotRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, nil, storageErr("lock slot", err)
		}
		locked[id] = slot
	}

	return locked[firstID], locked[secondID], nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, MessageOf(err))
	}
	span.End()
}
