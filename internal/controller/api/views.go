package api

import (
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/google/uuid"
)

type userView struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	TelegramLinked bool      `json:"telegramLinked"`
}

type slotView struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Status    model.SlotStatus `json:"status"`
	OwnerID   uuid.UUID        `json:"ownerId"`
	OwnerName string           `json:"ownerName,omitempty"`
}

type slotSummaryView struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Status    model.SlotStatus `json:"status"`
}

type userSummaryView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

type swapRequestView struct {
	ID          uuid.UUID        `json:"id"`
	MySlotID    uuid.UUID        `json:"mySlotId"`
	TheirSlotID uuid.UUID        `json:"theirSlotId"`
	FromUserID  uuid.UUID        `json:"fromUserId"`
	ToUserID    uuid.UUID        `json:"toUserId"`
	Status      model.SwapStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`

	MySlot    *slotSummaryView `json:"mySlot,omitempty"`
	TheirSlot *slotSummaryView `json:"theirSlot,omitempty"`
	FromUser  *userSummaryView `json:"fromUser,omitempty"`
	ToUser    *userSummaryView `json:"toUser,omitempty"`
}

func toUserView(u *model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, TelegramLinked: u.TelegramChatID != nil}
}

func toSlotView(s *model.Slot) slotView {
	return slotView{
		ID:        s.ID,
		Title:     s.Title,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
		OwnerID:   s.OwnerID,
		OwnerName: s.OwnerName,
	}
}

func toSlotViews(slots []*model.Slot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotView(s))
	}
	return out
}

func toSwapView(r *model.SwapRequest) swapRequestView {
	v := swapRequestView{
		ID:          r.ID,
		MySlotID:    r.MySlotID,
		TheirSlotID: r.TheirSlotID,
		FromUserID:  r.FromUserID,
		ToUserID:    r.ToUserID,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		RespondedAt: r.RespondedAt,
		MySlot:      toSlotSummaryView(r.MySlot),
		TheirSlot:   toSlotSummaryView(r.TheirSlot),
		FromUser:    toUserSummaryView(r.FromUser),
		ToUser:      toUserSummaryView(r.ToUser),
	}
	return v
}

func toSwapViews(reqs []*model.SwapRequest) []swapRequestView {
	out := make([]swapRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toSwapView(r))
	}
	return out
}

func toSlotSummaryView(s *model.SlotSummary) *slotSummaryView {
	if s == nil {
		return nil
	}
	return &slotSummaryView{ID: s.ID, Title: s.Title, StartTime: s.StartTime, EndTime: s.EndTime, Status: s.Status}
}

func toUserSummaryView(u *model.UserSummary) *userSummaryView {
	if u == nil {
		return nil
	}
	return &userSummaryView{ID: u.ID, Name: u.Name, Email: u.Email}
}
