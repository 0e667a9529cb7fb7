package logger

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/mappers"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PGAuditLogger struct {
	db *gorm.DB
}

func NewPGAuditLogger(db *gorm.DB) *PGAuditLogger {
	return &PGAuditLogger{db: db}
}

func (l *PGAuditLogger) LogAudit(ctx context.Context, entry domain.AuditEntry) error {
	if err := l.db.WithContext(ctx).Create(mappers.ToGORMAuditEntry(&entry)).Error; err != nil {
		return fmt.Errorf("write audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// ZapAuditLogger writes audit entries to the service log only.
type ZapAuditLogger struct {
	log *zap.Logger
}

func NewZapAuditLogger(log *zap.Logger) *ZapAuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

func (l *ZapAuditLogger) LogAudit(_ context.Context, entry domain.AuditEntry) error {
	l.log.Info("lockdown audit",
		zap.String("audit_id", entry.ID),
		zap.String("location_id", entry.LocationID),
		zap.String("action", string(entry.Action)),
		zap.String("actor", entry.Actor),
		zap.String("record_id", entry.RecordID),
		zap.String("phase", string(entry.Phase)),
		zap.String("reason", entry.Reason),
		zap.Time("at", entry.At),
	)
	return nil
}
