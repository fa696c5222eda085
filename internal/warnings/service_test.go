package warnings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"warden-automod/internal/modules/audit"
	"warden-automod/internal/storage"

	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeNotifier struct {
	dms        []Notice
	timeouts   []time.Time
	dmErr      error
	timeoutErr error
}

func (f *fakeNotifier) DirectMessage(_ context.Context, _ string, notice Notice) error {
	f.dms = append(f.dms, notice)
	return f.dmErr
}

func (f *fakeNotifier) Timeout(_ context.Context, _, _ string, until time.Time, _ string) error {
	if f.timeoutErr != nil {
		return f.timeoutErr
	}
	f.timeouts = append(f.timeouts, until)
	return nil
}

type fakeAuditor struct {
	events []string
}

func (f *fakeAuditor) Log(_ context.Context, _, _, _, event, _ string) {
	f.events = append(f.events, event)
}

func newTestService(t *testing.T, notifier *fakeNotifier, recorder *fakeAuditor, cfg Config) (*Service, *fakeClock) {
	t.Helper()
	store, err := storage.New(storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var auditor Auditor
	if recorder != nil {
		auditor = recorder
	}
	svc := New(store, notifier, auditor, cfg, zap.NewNop())
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc.SetClock(clock)
	return svc, clock
}

func TestWarnAccumulatesStrikes(t *testing.T) {
	notifier := &fakeNotifier{}
	auditor := &fakeAuditor{}
	svc, _ := newTestService(t, notifier, auditor, Config{Expiry: 24 * time.Hour, DMEnabled: true})
	ctx := context.Background()

	first, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "Watch your language!", Strikes: 2})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if first.ActiveStrikes != 2 || first.Warning.ID == "" {
		t.Fatalf("unexpected outcome %+v", first)
	}

	second, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "invites", Reason: "invite", Strikes: 1})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if second.ActiveStrikes != 3 {
		t.Fatalf("active strikes = %d, want 3", second.ActiveStrikes)
	}
	if second.Warning.ID == first.Warning.ID {
		t.Fatal("warning ids must be unique")
	}
	if len(notifier.dms) != 2 || notifier.dms[1].ActiveStrikes != 3 {
		t.Fatalf("unexpected dms %+v", notifier.dms)
	}
	if len(notifier.timeouts) != 0 {
		t.Fatal("timeouts require enabled actions")
	}
	if len(auditor.events) != 2 || auditor.events[0] != audit.EventWarning {
		t.Fatalf("unexpected audit events %v", auditor.events)
	}
}

func TestWarnExpiry(t *testing.T) {
	svc, clock := newTestService(t, &fakeNotifier{}, nil, Config{Expiry: time.Hour})
	ctx := context.Background()

	if _, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 2}); err != nil {
		t.Fatalf("warn: %v", err)
	}
	clock.now = clock.now.Add(2 * time.Hour)
	outcome, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 1})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if outcome.ActiveStrikes != 1 {
		t.Fatalf("expired warning still counted: %d", outcome.ActiveStrikes)
	}
}

func TestWarnTimesOutAtThreshold(t *testing.T) {
	notifier := &fakeNotifier{}
	auditor := &fakeAuditor{}
	cfg := Config{Threshold: 3, TimeoutLength: 15 * time.Minute, ActionsEnabled: true, DMEnabled: true}
	svc, clock := newTestService(t, notifier, auditor, cfg)
	ctx := context.Background()

	outcome, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 2})
	if err != nil || outcome.TimedOut {
		t.Fatalf("below threshold: %+v %v", outcome, err)
	}

	outcome, err = svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 1})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if !outcome.TimedOut || len(notifier.timeouts) != 1 {
		t.Fatalf("expected timeout, got %+v", outcome)
	}
	if !notifier.timeouts[0].Equal(clock.now.Add(15 * time.Minute)) {
		t.Fatalf("timeout until %v", notifier.timeouts[0])
	}
	if notifier.dms[1].TimedOutUntil.IsZero() {
		t.Fatal("dm should mention the timeout")
	}
	if auditor.events[len(auditor.events)-1] != audit.EventTimeout {
		t.Fatalf("timeout not audited: %v", auditor.events)
	}
}

func TestZeroStrikeWarningNeverEscalates(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestService(t, notifier, nil, Config{Threshold: 1, ActionsEnabled: true})
	ctx := context.Background()

	if _, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 1}); err != nil {
		t.Fatalf("warn: %v", err)
	}
	outcome, err := svc.Warn(ctx, Request{GuildID: "g1", UserID: "u1", Category: "animated_emoji", Reason: "r", Strikes: 0})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if outcome.TimedOut || len(notifier.timeouts) != 1 {
		t.Fatalf("zero strike warning escalated: %+v", outcome)
	}
}

func TestWarnErrors(t *testing.T) {
	notifier := &fakeNotifier{dmErr: errors.New("cannot dm"), timeoutErr: errors.New("missing permissions")}
	svc, _ := newTestService(t, notifier, nil, Config{Threshold: 1, ActionsEnabled: true, DMEnabled: true})

	outcome, err := svc.Warn(context.Background(), Request{GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 1})
	if err == nil || !strings.Contains(err.Error(), "timeout member") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if outcome.Warning.ID == "" || outcome.TimedOut {
		t.Fatalf("warning should still be recorded: %+v", outcome)
	}
}

func TestFormatNotice(t *testing.T) {
	text := FormatNotice(Notice{Reason: "Watch your language!", Strikes: 2, ActiveStrikes: 5, Evidence: "Sent message with words:\ngrape", TimedOutUntil: time.Unix(100, 0)})
	for _, want := range []string{"Watch your language!", "Strikes: 2 (active total 5)", "grape", "<t:100:f>"} {
		if !strings.Contains(text, want) {
			t.Fatalf("notice %q missing %q", text, want)
		}
	}
}

func TestFormatNoticeWithoutStrikes(t *testing.T) {
	text := FormatNotice(Notice{Reason: "Removed characters that are hard to ping from your display name."})
	if text != "Removed characters that are hard to ping from your display name." {
		t.Fatalf("notice = %q", text)
	}
}
