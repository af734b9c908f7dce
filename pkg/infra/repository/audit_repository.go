package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campusgate/campusgate/pkg/infra/audit"
)

// AuditRecord is the persisted form of an audit entry.
type AuditRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Actor     string `gorm:"index"`
	Action    string `gorm:"index;not null"`
	IP        string
	UserAgent string
	Status    int
	Details   string
	CreatedAt time.Time `gorm:"index"`
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) SaveAuditEntry(ctx context.Context, entry audit.Entry) error {
	record := AuditRecord{
		Actor:     entry.Actor,
		Action:    entry.Action,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Status:    entry.Status,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}
