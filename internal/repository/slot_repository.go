package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `s.id, s.owner_id, s.title, s.start_time, s.end_time, s.status, s.pending_request_id, s.version, s.created_at, s.updated_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

func scanSlot(row pgx.Row, withOwner bool) (*model.Slot, error) {
	var slot model.Slot
	fields := []any{
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.PendingRequestID,
		&slot.Version,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	}
	if withOwner {
		fields = append(fields, &slot.OwnerName)
	}
	if err := row.Scan(fields...); err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows, withOwner bool) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows, withOwner)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status, pending_request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at
	`

	err := r.Conn(ctx).QueryRow(
		ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.PendingRequestID,
	).Scan(&slot.Version, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1`

	slot, err := scanSlot(r.Conn(ctx).QueryRow(ctx, query, id), false)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetForUpdate получает слот и блокирует строку до конца транзакции
func (r *SlotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1 FOR UPDATE`

	slot, err := scanSlot(r.Conn(ctx).QueryRow(ctx, query, id), false)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// ListByOwner получает все слоты пользователя
func (r *SlotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		WHERE s.owner_id = $1
		ORDER BY s.start_time, s.created_at
	`

	rows, err := r.Conn(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list slots by owner: %w", err)
	}
	return collectSlots(rows, false)
}

// ListSwappable получает слоты, открытые для обмена, кроме слотов указанного пользователя
func (r *SlotRepository) ListSwappable(ctx context.Context, excludeOwnerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `, u.name
		FROM slots s
		JOIN users u ON u.id = s.owner_id
		WHERE s.status = $1
		  AND s.owner_id <> $2
		ORDER BY s.start_time, s.created_at
	`

	rows, err := r.Conn(ctx).Query(ctx, query, model.SlotStatusSwappable, excludeOwnerID)
	if err != nil {
		return nil, fmt.Errorf("list swappable slots: %w", err)
	}
	return collectSlots(rows, true)
}

// ListStalePending находит слоты в SWAP_PENDING без живого PENDING запроса
func (r *SlotRepository) ListStalePending(ctx context.Context) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		LEFT JOIN swap_requests sr
		       ON sr.id = s.pending_request_id
		      AND sr.status = 'PENDING'
		WHERE s.status = 'SWAP_PENDING'
		  AND sr.id IS NULL
		ORDER BY s.created_at
	`

	rows, err := r.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stale pending slots: %w", err)
	}
	return collectSlots(rows, false)
}

// Update сохраняет слот, если его версия не изменилась с момента чтения
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET owner_id = $1,
		    title = $2,
		    start_time = $3,
		    end_time = $4,
		    status = $5,
		    pending_request_id = $6,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at
	`

	err := r.Conn(ctx).QueryRow(
		ctx, query,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.PendingRequestID,
		slot.ID,
		slot.Version,
	).Scan(&slot.Version, &slot.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrStaleVersion
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// Delete удаляет слот, если его версия не изменилась
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return ErrStaleVersion
	}

	return nil
}
