package lowdemand

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sweeper is the slice of the request service the job needs.
type sweeper interface {
	SweepLowDemand(ctx context.Context, cutoffHours, demandThreshold int, message string) (int64, error)
}

// Job rejects stale pending requests that never gathered enough duplicate
// submissions to justify the work.
type Job struct {
	requests    sweeper
	cutoffHours int
	threshold   int
	reason      string
	logger      *zap.Logger
}

func New(requests sweeper, cutoffHours, threshold int, reason string, logger *zap.Logger) *Job {
	if cutoffHours <= 0 {
		cutoffHours = 24
	}
	if threshold <= 0 {
		threshold = 4
	}
	if reason == "" {
		reason = "Baixa demanda"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		requests:    requests,
		cutoffHours: cutoffHours,
		threshold:   threshold,
		reason:      reason,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.requests == nil {
		return nil
	}

	rejected, err := j.requests.SweepLowDemand(ctx, j.cutoffHours, j.threshold, j.reason)
	if err != nil {
		return fmt.Errorf("sweep low demand requests: %w", err)
	}
	if rejected > 0 {
		j.logger.Info("low demand sweep completed", zap.Int64("rejected", rejected))
	}

	return nil
}

// RunLoop runs the sweep every interval until ctx is done. The first sweep
// happens immediately so a freshly started process does not wait a full
// interval to catch up.
func (j *Job) RunLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Error("low demand sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("low demand sweep failed", zap.Error(err))
			}
		}
	}
}
