// Package warnings records moderation warnings and escalates members whose
// active strikes reach the configured threshold.
package warnings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warden-automod/internal/metrics"
	"warden-automod/internal/modules/audit"
	"warden-automod/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	AddWarning(ctx context.Context, w storage.Warning) error
	ActiveStrikes(ctx context.Context, guildID, userID string, now time.Time) (int, error)
}

// Notifier reaches the member on the platform.
type Notifier interface {
	DirectMessage(ctx context.Context, userID string, notice Notice) error
	Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error
}

type Auditor interface {
	Log(ctx context.Context, level, guildID, userID, event, details string)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	// Expiry is how long a warning counts towards the active total. Zero
	// keeps warnings forever.
	Expiry time.Duration
	// Threshold is the active strike total that triggers a timeout. Zero
	// disables escalation.
	Threshold      int
	TimeoutLength  time.Duration
	ActionsEnabled bool
	DMEnabled      bool
}

// Request describes a warning to issue.
type Request struct {
	GuildID  string
	UserID   string
	Category string
	Reason   string
	Strikes  int
	Evidence string
}

// Notice is what the member is told by direct message.
type Notice struct {
	GuildID       string
	Category      string
	Reason        string
	Strikes       int
	ActiveStrikes int
	Evidence      string
	TimedOutUntil time.Time
}

type Outcome struct {
	Warning       storage.Warning
	ActiveStrikes int
	TimedOut      bool
}

type Service struct {
	store    Store
	notifier Notifier
	audit    Auditor
	cfg      Config
	clock    Clock
	logger   *zap.Logger
}

func New(store Store, notifier Notifier, auditor Auditor, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimeoutLength <= 0 {
		cfg.TimeoutLength = 10 * time.Minute
	}
	return &Service{store: store, notifier: notifier, audit: auditor, cfg: cfg, clock: realClock{}, logger: logger}
}

func (s *Service) SetClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// Warn stores a warning, tells the member about it and applies a timeout
// when the active total reaches the threshold. Zero-strike warnings are
// recorded but never escalate. A failed direct message is not an error.
func (s *Service) Warn(ctx context.Context, req Request) (Outcome, error) {
	now := s.clock.Now()
	warning := storage.Warning{
		ID:        uuid.NewString(),
		GuildID:   req.GuildID,
		UserID:    req.UserID,
		Category:  req.Category,
		Reason:    req.Reason,
		Strikes:   req.Strikes,
		Evidence:  req.Evidence,
		CreatedAt: now,
	}
	if s.cfg.Expiry > 0 {
		warning.ExpiresAt = now.Add(s.cfg.Expiry)
	}
	if err := s.store.AddWarning(ctx, warning); err != nil {
		return Outcome{}, fmt.Errorf("store warning: %w", err)
	}
	metrics.Warnings.WithLabelValues(req.Category).Inc()

	active, err := s.store.ActiveStrikes(ctx, req.GuildID, req.UserID, now)
	if err != nil {
		return Outcome{Warning: warning}, fmt.Errorf("active strikes: %w", err)
	}
	outcome := Outcome{Warning: warning, ActiveStrikes: active}

	s.log(ctx, audit.LevelWarn, req, audit.EventWarning,
		fmt.Sprintf("%s: %s (%d strikes, %d active)", req.Category, req.Reason, req.Strikes, active))

	notice := Notice{
		GuildID:       req.GuildID,
		Category:      req.Category,
		Reason:        req.Reason,
		Strikes:       req.Strikes,
		ActiveStrikes: active,
		Evidence:      req.Evidence,
	}

	var timeoutErr error
	if s.shouldEscalate(req, active) {
		until := now.Add(s.cfg.TimeoutLength)
		reason := fmt.Sprintf("Reached %d active strikes", active)
		if err := s.notifier.Timeout(ctx, req.GuildID, req.UserID, until, reason); err != nil {
			timeoutErr = fmt.Errorf("timeout member: %w", err)
		} else {
			metrics.Timeouts.Inc()
			outcome.TimedOut = true
			notice.TimedOutUntil = until
			s.log(ctx, audit.LevelCrit, req, audit.EventTimeout,
				fmt.Sprintf("%d active strikes, timed out until %s", active, until.UTC().Format(time.RFC3339)))
		}
	}

	if s.cfg.DMEnabled && s.notifier != nil {
		if err := s.notifier.DirectMessage(ctx, req.UserID, notice); err != nil {
			s.logger.Debug("warning dm failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}
	return outcome, timeoutErr
}

func (s *Service) shouldEscalate(req Request, active int) bool {
	return s.cfg.ActionsEnabled &&
		s.notifier != nil &&
		s.cfg.Threshold > 0 &&
		req.Strikes > 0 &&
		active >= s.cfg.Threshold
}

func (s *Service) log(ctx context.Context, level string, req Request, event, details string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, level, req.GuildID, req.UserID, event, details)
}

// FormatNotice renders a notice as plain text. A notice without strikes is
// shown as the bare reason.
func FormatNotice(n Notice) string {
	var b strings.Builder
	if n.Strikes == 0 && n.ActiveStrikes == 0 {
		b.WriteString(n.Reason)
	} else {
		fmt.Fprintf(&b, "You received a warning: %s\n", n.Reason)
		fmt.Fprintf(&b, "Strikes: %d (active total %d)", n.Strikes, n.ActiveStrikes)
	}
	if n.Evidence != "" {
		fmt.Fprintf(&b, "\n%s", n.Evidence)
	}
	if !n.TimedOutUntil.IsZero() {
		fmt.Fprintf(&b, "\nYou are timed out until <t:%d:f>.", n.TimedOutUntil.Unix())
	}
	return b.String()
}
