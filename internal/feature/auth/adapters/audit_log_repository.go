package adapters

import (
	"context"
	"fmt"

	"auth_backend/internal/feature/auth/domain/entity"

	"gorm.io/gorm"
)

// auditLogRepository stores audit events in the append-only audit_logs table.
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new instance of auditLogRepository.
func NewAuditLogRepository(db *gorm.DB) *auditLogRepository {
	return &auditLogRepository{db: db}
}

// Save inserts ev. Events are never updated.
func (r *auditLogRepository) Save(ctx context.Context, ev *entity.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(AuditLogModelFromEntity(ev)).Error; err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}
