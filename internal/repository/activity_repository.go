package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nicoceron/nimble-backend/internal/model"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type ActivityRepository struct {
	*Store[model.Activity, *model.Activity]
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{Store: NewStore[model.Activity](db, "activities")}
}

func (r *ActivityRepository) ListByUserID(ctx context.Context, userID uint, limit int) ([]model.Activity, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}

	activities := make([]model.Activity, 0)
	if err := r.query(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activities failed: %w", err)
	}
	return activities, nil
}
