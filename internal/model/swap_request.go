package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

type SwapRequest struct {
	ID          uuid.UUID  `json:"id"`
	MySlotID    uuid.UUID  `json:"my_slot_id"`    // слот инициатора
	TheirSlotID uuid.UUID  `json:"their_slot_id"` // слот получателя
	FromUserID  uuid.UUID  `json:"from_user_id"`
	ToUserID    uuid.UUID  `json:"to_user_id"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	// Дополнительные поля для списков (не из таблицы swap_requests)
	MySlot    *SlotSummary `json:"my_slot,omitempty"`
	TheirSlot *SlotSummary `json:"their_slot,omitempty"`
	FromUser  *UserSummary `json:"from_user,omitempty"`
	ToUser    *UserSummary `json:"to_user,omitempty"`
}

// IsPending проверяет что запрос ещё не обработан
func (r *SwapRequest) IsPending() bool {
	return r.Status == SwapStatusPending
}

// References проверяет что запрос ссылается на слот
func (r *SwapRequest) References(slotID uuid.UUID) bool {
	return r.MySlotID == slotID || r.TheirSlotID == slotID
}
