package gate

import (
	"context"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/notifier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (uc *DefaultGateUsecase) rejected(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	uc.log.Info("lockdown operation rejected", fields...)
	if uc.metrics != nil {
		uc.metrics.RecordRejected(uc.locationID, operation, err)
	}
}

// recordAudit never fails the mutation that has already been applied.
func (uc *DefaultGateUsecase) recordAudit(ctx context.Context, entry domain.AuditEntry) {
	if uc.audit == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.LocationID = uc.locationID
	entry.At = uc.now()
	if err := uc.audit.LogAudit(ctx, entry); err != nil {
		uc.log.Error("failed to write audit entry",
			zap.String("action", string(entry.Action)),
			zap.String("record_id", entry.RecordID),
			zap.Error(err),
		)
	}
}

func (uc *DefaultGateUsecase) refreshGauges() {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RecordLockdown(uc.locationID, uc.CurrentLockdown())
	uc.metrics.RecordPhase(uc.locationID, uc.tracker.Current())
}

type sideEffect struct {
	event   publisher.LockdownEvent
	payload notifier.StatusPayload
}

// emit fills in the post-change snapshot and queues it for the broker and the
// presentation callback. Snapshots are numbered and delivered in emit order.
func (uc *DefaultGateUsecase) emit(event publisher.LockdownEvent) {
	uc.emitMu.Lock()
	defer uc.emitMu.Unlock()

	status := uc.Status()
	uc.refreshGauges()
	uc.sequence++

	event.EventID = uuid.NewString()
	event.Sequence = uc.sequence
	event.LocationID = uc.locationID
	event.BusinessDate = status.BusinessDate
	event.Phase = string(status.Phase)
	event.IsLocked = status.Lockdown.IsLocked
	event.BlockedMenuItemIDs = status.Lockdown.BlockedMenuItemIDs
	event.ActiveFailureCount = status.Lockdown.ActiveFailureCount
	event.OccurredAt = uc.now()

	if uc.queue == nil {
		return
	}
	if uc.closed {
		uc.log.Warn("gate closed, side effects dropped",
			zap.String("type", string(event.Type)),
			zap.Uint64("sequence", event.Sequence),
		)
		return
	}

	uc.pending.Add(1)
	uc.queue <- sideEffect{
		event: event,
		payload: notifier.StatusPayload{
			Event:              string(event.Type),
			Sequence:           event.Sequence,
			LocationID:         event.LocationID,
			BusinessDate:       event.BusinessDate,
			Phase:              event.Phase,
			IsLocked:           event.IsLocked,
			BlockedMenuItemIDs: event.BlockedMenuItemIDs,
			ActiveFailureCount: event.ActiveFailureCount,
			SentAt:             event.OccurredAt,
		},
	}
}

// dispatch is the only goroutine that talks to the broker and the callback.
func (uc *DefaultGateUsecase) dispatch() {
	defer close(uc.done)
	for effect := range uc.queue {
		uc.deliver(effect)
		uc.pending.Done()
	}
}

func (uc *DefaultGateUsecase) deliver(effect sideEffect) {
	if uc.events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		err := uc.events.PublishLockdownEvent(ctx, effect.event)
		cancel()
		if err != nil {
			uc.log.Error("failed to publish lockdown event",
				zap.String("type", string(effect.event.Type)),
				zap.String("event_id", effect.event.EventID),
				zap.Uint64("sequence", effect.event.Sequence),
				zap.Error(err),
			)
		}
	}

	if uc.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		err := uc.notifier.SendStatus(ctx, effect.payload)
		cancel()
		if err != nil {
			uc.log.Error("failed to send status callback",
				zap.String("event", effect.payload.Event),
				zap.Uint64("sequence", effect.payload.Sequence),
				zap.Error(err),
			)
		}
	}
}
