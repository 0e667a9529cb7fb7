package background

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ingest"
	"go.uber.org/zap"
)

const systemActor = "system:rollover"

// DayRoller is the part of the gate the rollover task needs.
type DayRoller interface {
	Status() domain.GateStatus
	Rollover(ctx context.Context, businessDate, actor string) error
}

type BackgroundTasks struct {
	Gate          DayRoller
	CheckConsumer *ingest.CheckConsumer
	Location      *time.Location
	CheckInterval time.Duration
	Log           *zap.Logger
	Now           func() time.Time
}

func NewBackgroundTasks(gate DayRoller, consumer *ingest.CheckConsumer, loc *time.Location, interval time.Duration, log *zap.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		Gate:          gate,
		CheckConsumer: consumer,
		Location:      loc,
		CheckInterval: interval,
		Log:           log,
		Now:           time.Now,
	}
}

// Run blocks until ctx is done. The check consumer is optional.
func (bt *BackgroundTasks) Run(ctx context.Context) error {
	done := make(chan error, 1)
	if bt.CheckConsumer != nil {
		go func() { done <- bt.CheckConsumer.Run(ctx) }()
	} else {
		close(done)
	}

	bt.startDayRollover(ctx)

	if err, ok := <-done; ok && err != nil {
		return err
	}
	return nil
}

func (bt *BackgroundTasks) startDayRollover(ctx context.Context) {
	ticker := time.NewTicker(bt.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.RolloverIfDue(ctx)
		}
	}
}

// RolloverIfDue starts a new business day once the local calendar date has moved past
// the tracked one.
func (bt *BackgroundTasks) RolloverIfDue(ctx context.Context) bool {
	today := domain.BusinessDate(bt.Now(), bt.Location)
	current := bt.Gate.Status().BusinessDate
	if today <= current {
		return false
	}
	if err := bt.Gate.Rollover(ctx, today, systemActor); err != nil {
		bt.Log.Error("day rollover failed",
			zap.String("from", current),
			zap.String("to", today),
			zap.Error(err),
		)
		return false
	}
	return true
}
