package gate

import "github.com/LavaJover/shvark-lockdown-service/internal/domain"

func (uc *DefaultGateUsecase) CurrentPhase() domain.DayPhase {
	return uc.tracker.Current()
}

func (uc *DefaultGateUsecase) ListActive() []*domain.CCPRecord {
	return uc.registry.ListActive()
}

func (uc *DefaultGateUsecase) IsMenuItemBlocked(menuItemID string) bool {
	return uc.registry.IsBlocked(menuItemID)
}

// CanServe only looks at CCP failures. The day phase is reported next to it but never blocks.
func (uc *DefaultGateUsecase) CanServe(menuItemID string) bool {
	return !uc.IsMenuItemBlocked(menuItemID)
}

func (uc *DefaultGateUsecase) CurrentLockdown() domain.LockdownState {
	return domain.ComputeLockdown(uc.registry.ListActive())
}

func (uc *DefaultGateUsecase) Status() domain.GateStatus {
	phase := uc.tracker.Snapshot()
	return domain.GateStatus{
		LocationID:   uc.locationID,
		BusinessDate: phase.BusinessDate,
		Phase:        phase.Phase,
		Lockdown:     uc.CurrentLockdown(),
	}
}
