package setup

import (
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ccp"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/dayphase"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/gate"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ingest"
)

type Usecases struct {
	Gate          *gate.DefaultGateUsecase
	CheckConsumer *ingest.CheckConsumer
}

func InitializeUsecases(deps *Dependencies) (*Usecases, error) {
	cfg := deps.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var registryOpts []ccp.Option
	if deps.Repositories.CCPRepo != nil {
		registryOpts = append(registryOpts, ccp.WithRepository(deps.Repositories.CCPRepo))
	}
	registry, err := ccp.NewRegistry(cfg.LocationID, registryOpts...)
	if err != nil {
		return nil, err
	}
	tracker := dayphase.NewTracker(
		cfg.LocationID,
		domain.BusinessDate(time.Now(), loc),
		dayphase.WithRepository(deps.Repositories.PhaseRepo),
	)

	params := gate.Params{
		Tracker:  tracker,
		Registry: registry,
		Audit:    deps.Repositories.Audit,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	// Typed nil pointers must not end up in the interfaces.
	if deps.EventPublisher != nil {
		params.Events = deps.EventPublisher
	}
	if deps.Notifier != nil {
		params.Notifier = deps.Notifier
	}

	uc := &Usecases{Gate: gate.NewDefaultGateUsecase(params)}
	if deps.CheckSource != nil {
		uc.CheckConsumer = ingest.NewCheckConsumer(
			deps.CheckSource,
			uc.Gate,
			cfg.KafkaService.ChecksTopic,
			cfg.KafkaService.ChecksGroup,
			deps.Logger,
		)
	}
	return uc, nil
}
