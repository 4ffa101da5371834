package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
)

// CreateReceiptRequest wraps parameters for inserting a receipt row.
// ID and CreatedAt are assigned by the database.
type CreateReceiptRequest struct {
	UserID             uuid.UUID
	ProductName        string
	Category           string
	WarrantyExpiration time.Time
	ImagePath          *string
}

type ReceiptRepository interface {
	Create(ctx context.Context, req *CreateReceiptRequest) (*entity.Receipt, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entity.Receipt, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Receipt, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type receiptRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(pool *pgxpool.Pool, logger *zap.Logger) ReceiptRepository {
	return &receiptRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *receiptRepository) Create(ctx context.Context, req *CreateReceiptRequest) (*entity.Receipt, error) {
	query := `
INSERT INTO receipts (user_id, product_name, category, warranty_expiration_date, image_path)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, product_name, category, warranty_expiration_date, image_path, created_at
`
	var rec entity.Receipt
	err := pgxscan.Get(ctx, r.pool, &rec, query,
		req.UserID,
		req.ProductName,
		req.Category,
		req.WarrantyExpiration,
		req.ImagePath,
	)
	if err != nil {
		r.logger.Error("failed to insert receipt", zap.String("user_id", req.UserID.String()), zap.Error(err))
		return nil, err
	}
	return &rec, nil
}

func (r *receiptRepository) List(ctx context.Context, userID uuid.UUID) ([]*entity.Receipt, error) {
	query := `
SELECT id, user_id, product_name, category, warranty_expiration_date, image_path, created_at
FROM receipts
WHERE user_id = $1
ORDER BY created_at DESC
`
	var recs []*entity.Receipt
	if err := pgxscan.Select(ctx, r.pool, &recs, query, userID); err != nil {
		r.logger.Error("failed to list receipts", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}
	return recs, nil
}

func (r *receiptRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Receipt, error) {
	query := `
SELECT id, user_id, product_name, category, warranty_expiration_date, image_path, created_at
FROM receipts
WHERE id = $1 AND user_id = $2
`
	var rec entity.Receipt
	err := pgxscan.Get(ctx, r.pool, &rec, query, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get receipt", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return &rec, nil
}

func (r *receiptRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("failed to delete receipt", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
