package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING"
)

// Valid проверяет что статус известен
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return true
	}
	return false
}

// OwnerSettable статусы, которые владелец может выставить сам
func (s SlotStatus) OwnerSettable() bool {
	return s == SlotStatusBusy || s == SlotStatusSwappable
}

type Slot struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	OwnerName        string     `json:"owner_name,omitempty"` // заполняется только при выборке списков
	Title            string     `json:"title"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Status           SlotStatus `json:"status"`
	PendingRequestID *uuid.UUID `json:"pending_request_id,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsPendingFor проверяет что слот заблокирован именно этим запросом
func (s *Slot) IsPendingFor(requestID uuid.UUID) bool {
	return s.Status == SlotStatusSwapPending &&
		s.PendingRequestID != nil &&
		*s.PendingRequestID == requestID
}

// MarkPending переводит слот в SWAP_PENDING под запрос
func (s *Slot) MarkPending(requestID uuid.UUID) {
	id := requestID
	s.Status = SlotStatusSwapPending
	s.PendingRequestID = &id
}

// Release снимает блокировку и выставляет итоговый статус
func (s *Slot) Release(status SlotStatus) {
	s.Status = status
	s.PendingRequestID = nil
}

func (s *Slot) Summary() *SlotSummary {
	return &SlotSummary{
		ID:        s.ID,
		Title:     s.Title,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
	}
}

// SlotSummary поля слота, которые показываются в списках запросов
type SlotSummary struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
}
