package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"

	"gorm.io/gorm"
)

// refreshTokenRepository is a PostgreSQL implementation of the RefreshTokenRepository interface.
type refreshTokenRepository struct {
	db *gorm.DB
}

// Compile-time check to ensure refreshTokenRepository implements RefreshTokenRepository.
var _ usecase.RefreshTokenRepository = (*refreshTokenRepository)(nil)

// NewRefreshTokenRepository creates a new instance of refreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) *refreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create persists a new refresh token record.
func (r *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(RefreshTokenModelFromEntity(token)).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindByToken retrieves a refresh token record by its token string.
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	var model RefreshTokenModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// RevokeAllByUserID revokes all of a user's live tokens in a single UPDATE.
func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&RefreshTokenModel{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

// DeleteExpired removes all tokens that expired before the given time.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&RefreshTokenModel{})
	return result.RowsAffected, result.Error
}
