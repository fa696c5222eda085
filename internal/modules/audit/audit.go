package audit

import (
	"context"
	"time"

	"warden-automod/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

const (
	EventWarning        = "automod_warning"
	EventTimeout        = "automod_timeout"
	EventNickname       = "nickname_censored"
	EventEnforcement    = "enforcement_failed"
	EventAuditOnlyMatch = "audit_only_match"
)

// Sink persists audit entries.
type Sink interface {
	AddAuditLog(ctx context.Context, log storage.AuditLog) error
}

// Logger writes an audit entry to the store, the structured log and the
// optional notifier.
type Logger struct {
	store  Sink
	logger *zap.Logger
	notify func(context.Context, storage.AuditLog)
}

func NewLogger(store Sink, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{store: store, logger: logger}
}

func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

func (l *Logger) Log(ctx context.Context, level, guildID, userID, event, details string) {
	entry := storage.AuditLog{
		GuildID:   guildID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if l.store != nil {
		if err := l.store.AddAuditLog(ctx, entry); err != nil {
			l.logger.Warn("audit persist failed", zap.String("event", event), zap.Error(err))
		}
	}
	if l.notify != nil {
		l.notify(ctx, entry)
	}
	l.logger.Info("audit",
		zap.String("level", level),
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("details", details),
	)
}
