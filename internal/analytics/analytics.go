package analytics

import (
	"context"
	"time"

	"warden-automod/internal/storage"
)

type Service struct {
	store *storage.Store
	now   func() time.Time
}

func New(store *storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Report summarizes a guild's audit trail.
type Report struct {
	Total   int
	ByLevel map[string]int
	ByEvent map[string]int
}

func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int), ByEvent: make(map[string]int)}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
		report.ByEvent[log.Event]++
	}
	return report, nil
}

// MemberStrikes is the active strike standing of one member.
type MemberStrikes struct {
	Total      int
	Categories []storage.CategoryStrikes
	Recent     []storage.Warning
}

func (s *Service) MemberStrikes(ctx context.Context, guildID, userID string) (MemberStrikes, error) {
	now := s.now()
	categories, err := s.store.StrikesByCategory(ctx, guildID, userID, now)
	if err != nil {
		return MemberStrikes{}, err
	}
	recent, err := s.store.ListWarnings(ctx, guildID, userID, 5)
	if err != nil {
		return MemberStrikes{}, err
	}

	out := MemberStrikes{Categories: categories}
	for _, category := range categories {
		out.Total += category.Strikes
	}
	for _, warning := range recent {
		if warning.Active(now) {
			out.Recent = append(out.Recent, warning)
		}
	}
	return out, nil
}
