package gate

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"go.uber.org/zap"
)

func (uc *DefaultGateUsecase) TransitionPhase(ctx context.Context, target domain.DayPhase, actor string) (domain.DayPhase, error) {
	from, phase, err := uc.tracker.Transition(ctx, target, actor)
	if err != nil {
		uc.rejected("transition_phase", err,
			zap.String("from", string(from)),
			zap.String("to", string(target)),
			zap.String("actor", actor),
		)
		return phase, err
	}

	uc.log.Info("day phase changed",
		zap.String("from", string(from)),
		zap.String("to", string(phase)),
		zap.String("actor", actor),
	)
	if uc.metrics != nil {
		uc.metrics.RecordPhaseTransition(uc.locationID, from, phase)
	}
	uc.recordAudit(ctx, domain.AuditEntry{
		Action: domain.AuditPhaseTransition,
		Actor:  actor,
		Phase:  phase,
	})
	uc.emit(publisher.LockdownEvent{
		Type:  publisher.EventPhaseChanged,
		Actor: actor,
	})
	return phase, nil
}

// Rollover starts a new business day and drops already resolved failures from memory.
// Active failures carry over: a failed control point stays failed until someone resolves it.
func (uc *DefaultGateUsecase) Rollover(ctx context.Context, businessDate, actor string) error {
	if err := uc.tracker.Rollover(ctx, businessDate, actor); err != nil {
		uc.rejected("rollover", err, zap.String("business_date", businessDate), zap.String("actor", actor))
		return err
	}
	pruned := uc.registry.PruneResolved(uc.now())

	uc.log.Info("business day rolled over",
		zap.String("business_date", businessDate),
		zap.Int("resolved_pruned", pruned),
		zap.String("actor", actor),
	)
	if uc.metrics != nil {
		uc.metrics.RecordRollover(uc.locationID)
	}
	uc.recordAudit(ctx, domain.AuditEntry{
		Action: domain.AuditDayRollover,
		Actor:  actor,
		Phase:  domain.PhaseNotStarted,
		Reason: businessDate,
	})
	uc.emit(publisher.LockdownEvent{
		Type:  publisher.EventDayRolledOver,
		Actor: actor,
	})
	return nil
}

func (uc *DefaultGateUsecase) ReportFailure(ctx context.Context, input *ccpdto.ReportFailureInput) (*domain.CCPRecord, error) {
	record, err := uc.registry.ReportFailure(ctx, input)
	if err != nil {
		uc.rejected("report_failure", err)
		return nil, err
	}

	uc.log.Warn("ccp failure reported",
		zap.String("record_id", record.ID),
		zap.Strings("menu_item_ids", record.MenuItemIDs),
		zap.String("reason", record.Reason),
		zap.String("actor", record.ReportedBy),
	)
	if uc.metrics != nil {
		uc.metrics.RecordFailureReported(uc.locationID)
	}
	uc.recordAudit(ctx, domain.AuditEntry{
		Action:   domain.AuditFailureReported,
		Actor:    record.ReportedBy,
		RecordID: record.ID,
		Reason:   record.Reason,
	})
	uc.emit(publisher.LockdownEvent{
		Type:        publisher.EventFailureRaised,
		Actor:       record.ReportedBy,
		RecordID:    record.ID,
		MenuItemIDs: record.MenuItemIDs,
		Reason:      record.Reason,
	})
	return record, nil
}

func (uc *DefaultGateUsecase) ResolveFailure(ctx context.Context, input *ccpdto.ResolveFailureInput) (*domain.CCPRecord, error) {
	if input == nil {
		err := fmt.Errorf("%w: resolve input is required", domain.ErrInvalidInput)
		uc.rejected("resolve_failure", err)
		return nil, err
	}
	record, err := uc.registry.Resolve(ctx, input.RecordID, input.Actor)
	if err != nil {
		uc.rejected("resolve_failure", err, zap.String("record_id", input.RecordID), zap.String("actor", input.Actor))
		return nil, err
	}

	uc.log.Info("ccp failure resolved",
		zap.String("record_id", record.ID),
		zap.Strings("menu_item_ids", record.MenuItemIDs),
		zap.String("actor", record.ResolvedBy),
	)
	if uc.metrics != nil {
		uc.metrics.RecordFailureResolved(uc.locationID, record.ResolvedAt.Sub(record.ReportedAt).Seconds())
	}
	uc.recordAudit(ctx, domain.AuditEntry{
		Action:   domain.AuditFailureResolved,
		Actor:    record.ResolvedBy,
		RecordID: record.ID,
		Reason:   record.Reason,
	})
	uc.emit(publisher.LockdownEvent{
		Type:        publisher.EventFailureCleared,
		Actor:       record.ResolvedBy,
		RecordID:    record.ID,
		MenuItemIDs: record.MenuItemIDs,
		Reason:      record.Reason,
	})
	return record, nil
}
