// Package receipts implements the record manager: it orchestrates image
// upload, row insertion and signed-URL resolution around the receipt
// repository and the blob store.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kombinator/garant/constants"
	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/repository"
	"github.com/kombinator/garant/internal/storage"
	"github.com/kombinator/garant/internal/warranty"
)

// Service handles receipt business logic.
type Service struct {
	receiptRepo  repository.ReceiptRepository
	blobs        storage.BlobStore
	signedURLTTL time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new receipt service.
func NewService(receiptRepo repository.ReceiptRepository, blobs storage.BlobStore, signedURLTTL time.Duration, logger *zap.Logger) *Service {
	if signedURLTTL <= 0 {
		signedURLTTL = time.Hour
	}
	return &Service{
		receiptRepo:  receiptRepo,
		blobs:        blobs,
		signedURLTTL: signedURLTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// ImageUpload carries an optional receipt photo submitted alongside the record.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AddReceiptRequest represents receipt creation parameters.
type AddReceiptRequest struct {
	ProductName        string
	Category           string
	WarrantyExpiration time.Time
	Image              *ImageUpload
}

// Add stores the image (if any) first and then inserts the record. A failed
// upload leaves no record behind. A failed insert after a successful upload
// triggers a best-effort compensating delete of the just-uploaded blob.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req AddReceiptRequest) (*entity.Receipt, error) {
	if err := s.validateAdd(req); err != nil {
		return nil, err
	}

	category := req.Category
	if cat, ok := constants.Canonicalize(req.Category); ok {
		category = string(cat)
	}

	var imagePath *string
	if req.Image != nil {
		key, err := s.uploadImage(ctx, userID, req.Image)
		if err != nil {
			return nil, err
		}
		imagePath = &key
	}

	rec, err := s.receiptRepo.Create(ctx, &repository.CreateReceiptRequest{
		UserID:             userID,
		ProductName:        req.ProductName,
		Category:           category,
		WarrantyExpiration: req.WarrantyExpiration,
		ImagePath:          imagePath,
	})
	if err != nil {
		if imagePath != nil {
			// The blob is orphaned otherwise; deletion failure here is
			// logged and accepted.
			if delErr := s.blobs.Delete(ctx, *imagePath); delErr != nil {
				s.logger.Warn("compensating blob delete failed",
					zap.String("key", *imagePath), zap.Error(delErr))
			}
		}
		s.logger.Error("failed to insert receipt", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("inserting receipt: %w", common.ErrPersistence)
	}

	s.decorate(rec)
	s.logger.Info("receipt added",
		zap.String("user_id", userID.String()),
		zap.String("receipt_id", rec.ID.String()),
		zap.Bool("has_image", imagePath != nil))
	return rec, nil
}

// List returns the owner's receipts newest first, with warranty status and a
// signed display URL derived for each. A presign failure degrades that one
// receipt to "no image" rather than failing the whole list.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*entity.Receipt, error) {
	recs, err := s.receiptRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", common.ErrPersistence)
	}

	for _, rec := range recs {
		s.decorate(rec)
		if rec.ImagePath == nil {
			continue
		}
		url, err := s.blobs.PresignGet(ctx, *rec.ImagePath, s.signedURLTTL)
		if err != nil {
			s.logger.Warn("failed to presign image URL",
				zap.String("receipt_id", rec.ID.String()), zap.Error(err))
			continue
		}
		rec.ImageURL = url
	}
	return recs, nil
}

// Delete removes the owner's blob (if any) and then the record. The two
// steps are not atomic; a blob-delete failure is logged and the record is
// removed anyway.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	rec, err := s.receiptRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if rec.ImagePath != nil {
		if err := s.blobs.Delete(ctx, *rec.ImagePath); err != nil {
			s.logger.Warn("failed to delete receipt image",
				zap.String("key", *rec.ImagePath), zap.Error(err))
		}
	}

	if err := s.receiptRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting receipt: %w", common.ErrPersistence)
	}
	s.logger.Info("receipt deleted", zap.String("receipt_id", id.String()))
	return nil
}

// Partition groups receipts into expired, expiring and active, preserving
// the input order within each group.
func (s *Service) Partition(receipts []*entity.Receipt) (expired, expiring, active []*entity.Receipt) {
	return warranty.Partition(receipts, s.now())
}

func (s *Service) validateAdd(req AddReceiptRequest) error {
	v := common.NewValidator()
	v.Field("product_name", req.ProductName, common.Required, common.MaxLength(200))
	v.Field("category", req.Category, common.Required, common.MaxLength(100))
	if req.WarrantyExpiration.IsZero() {
		return fmt.Errorf("%w: warranty_expiration_date is required", common.ErrValidation)
	}
	if req.Image != nil {
		ext := path.Ext(req.Image.Filename)
		if ext == "" || !constants.ExtAllowed(ext) {
			return fmt.Errorf("%w: image extension %q not allowed", common.ErrValidation, ext)
		}
	}
	return v.Err()
}

func (s *Service) uploadImage(ctx context.Context, userID uuid.UUID, img *ImageUpload) (string, error) {
	ext := constants.NormalizeExt(path.Ext(img.Filename))
	key := fmt.Sprintf("%s/%s.%s", userID, uuid.NewString(), ext)

	if err := s.blobs.Upload(ctx, key, img.ContentType, img.Data); err != nil {
		s.logger.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("storing image: %w", common.ErrUploadFailed)
	}
	return key, nil
}

// decorate fills the read-time derived fields. Status is never persisted:
// its correctness depends on the wall clock at read time.
func (s *Service) decorate(rec *entity.Receipt) {
	now := s.now()
	rec.Status = string(warranty.Classify(rec.WarrantyExpiration, now))
	rec.StatusLabel = warranty.Label(rec.WarrantyExpiration, now)
}
