package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendTimeout = 5 * time.Second

// MessageSender часть API бота, нужная для уведомлений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup находит пользователя для получения chat id
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Telegram пишет контрагенту, если тот привязал чат
type Telegram struct {
	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegram(sender MessageSender, users UserLookup, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, users: users, logger: logger}
}

func (t *Telegram) SwapProposed(ctx context.Context, req *model.SwapRequest) {
	text := "🔁 You have a new slot swap request.\n\n" +
		formatSlotLine("Offered", req.MySlot) + "\n" +
		formatSlotLine("In exchange for your", req.TheirSlot) + "\n\n" +
		"Open the Requests page to accept or reject it."
	t.send(ctx, req.ToUserID, text)
}

func (t *Telegram) SwapResolved(ctx context.Context, res *service.Resolution) {
	var text string
	switch res.Outcome {
	case service.OutcomeAccepted:
		text = fmt.Sprintf("✅ Your swap request was accepted. You now own %s.", formatSlot(res.Request.TheirSlot))
	default:
		text = fmt.Sprintf("❌ Your swap request for %s was rejected. Both slots are back on the marketplace.", formatSlot(res.Request.TheirSlot))
	}
	t.send(ctx, res.Request.FromUserID, text)
}

func (t *Telegram) send(ctx context.Context, userID uuid.UUID, text string) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		t.logger.Error("Failed to load user for notification", zap.Stringer("user_id", userID), zap.Error(err))
		return
	}

	if user == nil || user.TelegramChatID == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err = t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		t.logger.Error("Failed to send telegram notification",
			zap.Stringer("user_id", userID),
			zap.Int64("chat_id", *user.TelegramChatID),
			zap.Error(err),
		)
	}
}
