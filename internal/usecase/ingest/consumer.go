package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"go.uber.org/zap"
)

const (
	defaultCheckActor = "ccp-check"

	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

// FailureSink is the part of the gate the worker drives.
type FailureSink interface {
	LocationID() string
	ReportFailure(ctx context.Context, input *ccpdto.ReportFailureInput) (*domain.CCPRecord, error)
	ResolveFailure(ctx context.Context, input *ccpdto.ResolveFailureInput) (*domain.CCPRecord, error)
}

// CheckConsumer turns CCP check results from the broker into registry changes.
// Failed checks raise a failure, passed checks that name a record resolve it.
type CheckConsumer struct {
	subscriber domain.SubscriberPort
	sink       FailureSink
	topic      string
	groupID    string
	log        *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

type Option func(*CheckConsumer)

// WithBackoff sets the first wait before re-subscribing and the cap it doubles up to.
func WithBackoff(first, limit time.Duration) Option {
	return func(c *CheckConsumer) {
		c.minBackoff = first
		c.maxBackoff = limit
	}
}

func NewCheckConsumer(subscriber domain.SubscriberPort, sink FailureSink, topic, groupID string, log *zap.Logger, opts ...Option) *CheckConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	c := &CheckConsumer{
		subscriber: subscriber,
		sink:       sink,
		topic:      topic,
		groupID:    groupID,
		log:        log.Named("ccp-ingest"),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxBackoff < c.minBackoff {
		c.maxBackoff = c.minBackoff
	}
	return c
}

// Run consumes until ctx is cancelled. A failed subscribe or a stream that ends while
// ctx is alive is retried with exponential backoff, reset once messages flow again.
func (c *CheckConsumer) Run(ctx context.Context) error {
	delay := c.minBackoff
	failures := 0
	for {
		delivered, err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if delivered > 0 {
			delay = c.minBackoff
			failures = 0
		}
		failures++

		if err != nil {
			c.log.Error("ccp check subscription failed",
				zap.String("topic", c.topic),
				zap.Int("attempt", failures),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
		} else {
			c.log.Warn("ccp check stream ended, resubscribing",
				zap.String("topic", c.topic),
				zap.Int("delivered", delivered),
				zap.Duration("retry_in", delay),
			)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		delay = min(delay*2, c.maxBackoff)
	}
}

// consume reads one subscription until its channel closes or ctx is done.
func (c *CheckConsumer) consume(ctx context.Context) (int, error) {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return 0, err
	}
	c.log.Info("consuming ccp checks", zap.String("topic", c.topic), zap.String("group_id", c.groupID))

	delivered := 0
	for {
		select {
		case <-ctx.Done():
			return delivered, nil
		case msg, ok := <-msgs:
			if !ok {
				return delivered, nil
			}
			c.Handle(ctx, msg)
			delivered++
		}
	}
}

// Handle processes one message. Malformed or rejected checks are logged and dropped.
func (c *CheckConsumer) Handle(ctx context.Context, msg domain.Message) {
	var check publisher.CCPCheckMessage
	if err := json.Unmarshal(msg.Value, &check); err != nil {
		c.log.Warn("dropping malformed ccp check", zap.ByteString("key", msg.Key), zap.Error(err))
		return
	}
	if check.LocationID != "" && check.LocationID != c.sink.LocationID() {
		c.log.Debug("skipping check for another location",
			zap.String("check_id", check.CheckID),
			zap.String("check_location_id", check.LocationID),
		)
		return
	}

	actor := check.Actor
	if actor == "" {
		actor = defaultCheckActor
	}

	if check.Passed {
		c.resolve(ctx, check, actor)
		return
	}
	c.report(ctx, check, actor)
}

func (c *CheckConsumer) report(ctx context.Context, check publisher.CCPCheckMessage, actor string) {
	metadata := make(map[string]string, len(check.Readings)+1)
	for k, v := range check.Readings {
		metadata["reading."+k] = v
	}
	if check.CheckID != "" {
		metadata["check_id"] = check.CheckID
	}

	reason := strings.TrimSpace(check.Reason)
	if reason == "" {
		reason = "ccp check failed"
	}

	record, err := c.sink.ReportFailure(ctx, &ccpdto.ReportFailureInput{
		MenuItemIDs: check.MenuItemIDs,
		Reason:      reason,
		Actor:       actor,
		Metadata:    metadata,
	})
	if err != nil {
		c.log.Warn("failed check not recorded", zap.String("check_id", check.CheckID), zap.Error(err))
		return
	}
	c.log.Info("failed check recorded",
		zap.String("check_id", check.CheckID),
		zap.String("record_id", record.ID),
	)
}

func (c *CheckConsumer) resolve(ctx context.Context, check publisher.CCPCheckMessage, actor string) {
	if check.RecordID == "" {
		return
	}
	_, err := c.sink.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{
		RecordID: check.RecordID,
		Actor:    actor,
	})
	switch {
	case err == nil:
		c.log.Info("passed check resolved failure",
			zap.String("check_id", check.CheckID),
			zap.String("record_id", check.RecordID),
		)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAlreadyResolved):
		c.log.Debug("passed check has nothing to resolve",
			zap.String("check_id", check.CheckID),
			zap.String("record_id", check.RecordID),
			zap.Error(err),
		)
	default:
		c.log.Error("failed to resolve from passed check",
			zap.String("check_id", check.CheckID),
			zap.String("record_id", check.RecordID),
			zap.Error(err),
		)
	}
}
