// Package notify рассылает события обмена слотами: в Telegram и в шину сообщений.
// Все уведомления best-effort: ошибки логируются и не влияют на результат операции.
package notify

import (
	"context"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/service"
)

// Multi рассылает события всем получателям по очереди
type Multi []service.SwapNotifier

func (m Multi) SwapProposed(ctx context.Context, req *model.SwapRequest) {
	for _, n := range m {
		n.SwapProposed(ctx, req)
	}
}

func (m Multi) SwapResolved(ctx context.Context, res *service.Resolution) {
	for _, n := range m {
		n.SwapResolved(ctx, res)
	}
}
