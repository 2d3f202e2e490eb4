package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/application-tracker/internal/service"
)

// StartCleanupWorker sweeps expired OTP codes and stale pending
// registrations on a fixed interval until the context is cancelled.
func StartCleanupWorker(ctx context.Context, authService *service.AuthService, interval time.Duration, logger *zap.Logger) {
	if authService == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("cleanup worker stopped")
				return
			case <-ticker.C:
				authService.CleanupExpired(ctx)
			}
		}
	}()
}
