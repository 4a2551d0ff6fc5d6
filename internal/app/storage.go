package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slot_swap/internal/config"
	"github.com/Freeeeeet/slot_swap/internal/repository"
	"github.com/Freeeeeet/slot_swap/internal/repository/base"
	"github.com/Freeeeeet/slot_swap/internal/repository/memory"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage набор репозиториев и транзакций выбранного хранилища
type Storage struct {
	Tx       service.Transactor
	Users    service.UserRepository
	Slots    service.SlotRepository
	Requests service.SwapRequestRepository

	close func()
}

// Close освобождает соединения
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage подключается к postgres и применяет миграции, либо создаёт хранилище в памяти
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.New()
		return &Storage{
			Tx:       store,
			Users:    store.Users(),
			Slots:    store.Slots(),
			Requests: store.SwapRequests(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Storage{
		Tx:       base.NewTransactor(pool),
		Users:    repository.NewUserRepository(pool),
		Slots:    repository.NewSlotRepository(pool),
		Requests: repository.NewSwapRequestRepository(pool),
		close:    pool.Close,
	}, nil
}
