package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/form-relay/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryRecordRepository persists per-recipient delivery state. Writes are
// conditional so that concurrent dispatches for the same key cannot both
// record a delivery.
type DeliveryRecordRepository interface {
	GetByRecipientKey(ctx context.Context, recipientKey string) (*domain.DeliveryRecord, error)
	CreateIfAbsent(ctx context.Context, recipientKey string) (*domain.DeliveryRecord, error)
	MarkAttemptFailed(ctx context.Context, recipientKey string, attemptsMade int, errMsg string) error
	MarkDelivered(ctx context.Context, recipientKey string, attemptsMade int, providerMessageID string) error
}

type GormDeliveryRecordRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormDeliveryRecordRepo(db *gorm.DB) *GormDeliveryRecordRepo {
	return &GormDeliveryRecordRepo{db: db, now: time.Now}
}

func (r *GormDeliveryRecordRepo) GetByRecipientKey(ctx context.Context, recipientKey string) (*domain.DeliveryRecord, error) {
	var model DeliveryRecordModel
	err := r.db.WithContext(ctx).First(&model, "recipient_key = ?", recipientKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return recordModelToDomain(&model), nil
}

// CreateIfAbsent inserts a fresh record for the key, leaving an existing row
// untouched. Concurrent first dispatches converge on the same row.
func (r *GormDeliveryRecordRepo) CreateIfAbsent(ctx context.Context, recipientKey string) (*domain.DeliveryRecord, error) {
	model := &DeliveryRecordModel{RecipientKey: recipientKey}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipient_key"}},
			DoNothing: true,
		}).
		Create(model).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	// Re-read so callers always observe the persisted state, whether the
	// insert won or an earlier row already existed.
	return r.GetByRecipientKey(ctx, recipientKey)
}

func (r *GormDeliveryRecordRepo) MarkAttemptFailed(ctx context.Context, recipientKey string, attemptsMade int, errMsg string) error {
	if attemptsMade < 1 {
		attemptsMade = 1
	}

	result := r.db.WithContext(ctx).
		Model(&DeliveryRecordModel{}).
		Where("recipient_key = ?", recipientKey).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + ?", attemptsMade),
			"last_attempt_at": r.now().UTC(),
			"last_error":      errMsg,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkDelivered flips the delivered flag with a compare-and-swap on the
// current state. A zero row count means another dispatch won the race.
func (r *GormDeliveryRecordRepo) MarkDelivered(ctx context.Context, recipientKey string, attemptsMade int, providerMessageID string) error {
	if attemptsMade < 1 {
		attemptsMade = 1
	}

	updates := map[string]any{
		"delivered":       true,
		"attempts":        gorm.Expr("attempts + ?", attemptsMade),
		"last_attempt_at": r.now().UTC(),
		"last_error":      nil,
	}
	if providerMessageID != "" {
		updates["provider_message_id"] = providerMessageID
	}

	result := r.db.WithContext(ctx).
		Model(&DeliveryRecordModel{}).
		Where("recipient_key = ? AND delivered = ?", recipientKey, false).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
