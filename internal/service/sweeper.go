package service

import (
	"context"
	"fmt"
	"time"

	"github.com/homehands/notify-engine/internal/domain"
	"github.com/homehands/notify-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultRetryCooldown = 30 * time.Minute
	DefaultSweepLimit    = 50
)

// RetrySweeper periodically re-sends FAILED notifications that still have
// retry budget and have cooled down. It re-delivers the stored rendered
// content through the dispatcher's normal delivery path; templates are
// never re-rendered on retry.
type RetrySweeper struct {
	notifications repository.NotificationRepository
	dispatcher    *Dispatcher
	logger        *zap.Logger
	interval      time.Duration
	cooldown      time.Duration
	limit         int
	now           func() time.Time
}

func NewRetrySweeper(
	notifications repository.NotificationRepository,
	dispatcher *Dispatcher,
	interval time.Duration,
	cooldown time.Duration,
	limit int,
	logger *zap.Logger,
) (*RetrySweeper, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultRetryCooldown
	}
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetrySweeper{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		interval:      interval,
		cooldown:      cooldown,
		limit:         limit,
		now:           time.Now,
	}, nil
}

func (s *RetrySweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so already-due retries do not wait for the first ticker edge.
	if err := s.sweepDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("retry sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweepDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retry sweeper sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *RetrySweeper) sweepDue(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.cooldown)

	due, err := s.notifications.GetDueForRetry(ctx, cutoff, s.limit)
	if err != nil {
		return fmt.Errorf("failed to load notifications due for retry: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Info("retry sweep started",
		zap.Int("count", len(due)),
		zap.Time("cutoff", cutoff),
	)

	var retried, failed int
	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		notification := &due[i]
		notification.RetryCount++

		if s.dispatcher.metrics != nil {
			s.dispatcher.metrics.IncRetryAttempt(notification.Channel.String())
		}

		if err := s.dispatcher.deliver(ctx, notification, domain.LogActionRetryAttempt); err != nil {
			failed++
			s.logger.Warn("retry attempt failed",
				zap.String("notificationId", notification.ID),
				zap.Int("retryCount", notification.RetryCount),
				zap.Int("maxRetries", notification.MaxRetries),
				zap.Error(err),
			)
			continue
		}

		retried++
	}

	s.logger.Info("retry sweep finished",
		zap.Int("succeeded", retried),
		zap.Int("failed", failed),
	)

	return nil
}
