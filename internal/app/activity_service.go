package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nicoceron/nimble-backend/internal/metrics"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

type ActivityService struct {
	activityRepo *repository.ActivityRepository
}

func NewActivityService(activityRepo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

func (s *ActivityService) ListForUser(ctx context.Context, userID uint, limit int) ([]model.Activity, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.activityRepo.ListByUserID(ctx, userID, limit)
}

// Publish records activity synchronously. It stands in for the queue-backed
// publisher when no broker is configured.
func (s *ActivityService) Publish(ctx context.Context, activity model.Activity) error {
	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		return fmt.Errorf("record activity failed: %w", err)
	}
	return nil
}

// publishActivity is fire-and-forget: the mutation has already committed.
func publishActivity(ctx context.Context, publisher ActivityPublisher, logger *slog.Logger, activity model.Activity) {
	if publisher == nil {
		return
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	if err := publisher.Publish(ctx, activity); err != nil {
		metrics.ObserveActivity("publish", metrics.ResultError)
		logger.Warn("publish activity failed",
			slog.String("action", activity.Action),
			slog.Uint64("user_id", uint64(activity.UserID)),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveActivity("publish", metrics.ResultOK)
}
