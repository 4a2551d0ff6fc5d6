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

const swapRequestColumns = `sr.id, sr.my_slot_id, sr.their_slot_id, sr.from_user_id, sr.to_user_id, sr.status, sr.created_at, sr.responded_at`

type SwapRequestRepository struct {
	*base.Repository
}

func NewSwapRequestRepository(pool *pgxpool.Pool) *SwapRequestRepository {
	return &SwapRequestRepository{Repository: base.NewRepository(pool)}
}

func scanSwapRequest(row pgx.Row) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := row.Scan(
		&req.ID,
		&req.MySlotID,
		&req.TheirSlotID,
		&req.FromUserID,
		&req.ToUserID,
		&req.Status,
		&req.CreatedAt,
		&req.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт новый запрос на обмен
func (r *SwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (id, my_slot_id, their_slot_id, from_user_id, to_user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.Conn(ctx).QueryRow(
		ctx, query,
		req.ID,
		req.MySlotID,
		req.TheirSlotID,
		req.FromUserID,
		req.ToUserID,
		req.Status,
	).Scan(&req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

// GetByID получает запрос по ID
func (r *SwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests sr WHERE sr.id = $1`

	req, err := scanSwapRequest(r.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap request by id: %w", err)
	}

	return req, nil
}

// GetForUpdate получает запрос и блокирует строку до конца транзакции
func (r *SwapRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests sr WHERE sr.id = $1 FOR UPDATE`

	req, err := scanSwapRequest(r.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock swap request: %w", err)
	}

	return req, nil
}

// Resolve переводит PENDING запрос в итоговый статус
func (r *SwapRequestRepository) Resolve(ctx context.Context, req *model.SwapRequest) error {
	query := `
		UPDATE swap_requests
		SET status = $1, responded_at = NOW()
		WHERE id = $2 AND status = 'PENDING'
		RETURNING responded_at
	`

	err := r.Conn(ctx).QueryRow(ctx, query, req.Status, req.ID).Scan(&req.RespondedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return ErrStaleVersion
		}
		return fmt.Errorf("resolve swap request: %w", err)
	}

	return nil
}

// ListIncoming получает запросы, адресованные пользователю, новые первыми
func (r *SwapRequestRepository) ListIncoming(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.listDetailed(ctx, "sr.to_user_id = $1", userID)
}

// ListOutgoing получает запросы, отправленные пользователем, новые первыми
func (r *SwapRequestRepository) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.listDetailed(ctx, "sr.from_user_id = $1", userID)
}

func (r *SwapRequestRepository) listDetailed(ctx context.Context, where string, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `,
		       ms.id, ms.title, ms.start_time, ms.end_time, ms.status,
		       ts.id, ts.title, ts.start_time, ts.end_time, ts.status,
		       fu.id, fu.name, fu.email,
		       tu.id, tu.name, tu.email
		FROM swap_requests sr
		JOIN slots ms ON ms.id = sr.my_slot_id
		JOIN slots ts ON ts.id = sr.their_slot_id
		JOIN users fu ON fu.id = sr.from_user_id
		JOIN users tu ON tu.id = sr.to_user_id
		WHERE ` + where + `
		ORDER BY sr.created_at DESC
	`

	rows, err := r.Conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list swap requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		var (
			req       model.SwapRequest
			mySlot    model.SlotSummary
			theirSlot model.SlotSummary
			fromUser  model.UserSummary
			toUser    model.UserSummary
		)
		err := rows.Scan(
			&req.ID,
			&req.MySlotID,
			&req.TheirSlotID,
			&req.FromUserID,
			&req.ToUserID,
			&req.Status,
			&req.CreatedAt,
			&req.RespondedAt,
			&mySlot.ID, &mySlot.Title, &mySlot.StartTime, &mySlot.EndTime, &mySlot.Status,
			&theirSlot.ID, &theirSlot.Title, &theirSlot.StartTime, &theirSlot.EndTime, &theirSlot.Status,
			&fromUser.ID, &fromUser.Name, &fromUser.Email,
			&toUser.ID, &toUser.Name, &toUser.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		req.MySlot = &mySlot
		req.TheirSlot = &theirSlot
		req.FromUser = &fromUser
		req.ToUser = &toUser
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}

	return requests, nil
}
