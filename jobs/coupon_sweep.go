package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskCouponSweep deactivates coupons whose end date has passed.
const TaskCouponSweep = "coupons:sweep_expired"

// CouponSweeper is satisfied by the coupon service.
type CouponSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// NewCouponSweepTask constructs the sweep task. The task carries no payload;
// the sweep always covers every active coupon.
func NewCouponSweepTask() *asynq.Task {
	return asynq.NewTask(TaskCouponSweep, nil)
}

// CouponSweepJob runs the periodic coupon expiry sweep.
type CouponSweepJob struct {
	sweeper CouponSweeper
	logger  *slog.Logger
}

// NewCouponSweepJob constructs the job.
func NewCouponSweepJob(sweeper CouponSweeper, logger *slog.Logger) *CouponSweepJob {
	return &CouponSweepJob{sweeper: sweeper, logger: logger}
}

// Handle processes TaskCouponSweep tasks.
func (j *CouponSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	n, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		j.logger.Error("coupon sweep", slog.Any("error", err))
		return err
	}
	if n > 0 {
		j.logger.Info("coupons deactivated", slog.Int("count", n))
	}
	return nil
}
