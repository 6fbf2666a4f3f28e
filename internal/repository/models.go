package repository

import (
	"time"

	"github.com/kursadbilgin/form-relay/internal/domain"
)

// DeliveryRecordModel is the persistence model for the delivery_records table.
type DeliveryRecordModel struct {
	RecipientKey      string `gorm:"type:varchar(255);primaryKey"`
	Delivered         bool   `gorm:"not null;default:false"`
	Attempts          int    `gorm:"not null;default:0"`
	LastAttemptAt     *time.Time
	LastError         *string `gorm:"type:text"`
	ProviderMessageID *string `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (DeliveryRecordModel) TableName() string {
	return "delivery_records"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	RecipientKey  string  `gorm:"type:varchar(255);not null"`
	AttemptNumber int     `gorm:"not null"`
	Error         *string `gorm:"type:text"`
	ElapsedMillis int64   `gorm:"not null;default:0"`
	CreatedAt     time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

func recordModelToDomain(m *DeliveryRecordModel) *domain.DeliveryRecord {
	if m == nil {
		return nil
	}

	return &domain.DeliveryRecord{
		RecipientKey:      m.RecipientKey,
		Delivered:         m.Delivered,
		Attempts:          m.Attempts,
		LastAttemptAt:     m.LastAttemptAt,
		LastError:         m.LastError,
		ProviderMessageID: m.ProviderMessageID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:            a.ID,
		RecipientKey:  a.RecipientKey,
		AttemptNumber: a.AttemptNumber,
		Error:         a.Error,
		ElapsedMillis: a.ElapsedMillis,
		CreatedAt:     a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:            m.ID,
		RecipientKey:  m.RecipientKey,
		AttemptNumber: m.AttemptNumber,
		Error:         m.Error,
		ElapsedMillis: m.ElapsedMillis,
		CreatedAt:     m.CreatedAt,
	}
}
