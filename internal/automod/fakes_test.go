package automod

import (
	"context"
	"errors"
	"sync"
	"testing"

	"warden-automod/internal/censor"
)

func testCensor(t *testing.T) *censor.Censor {
	t.Helper()
	list := censor.WordList{Tiers: []censor.Tier{
		{Bounded: []string{censor.Rot13("kiwi")}},
		{Freeform: []string{censor.Rot13("plum")}},
		{Bounded: []string{censor.Rot13("grape")}},
	}}
	c, err := censor.FromWordList(list)
	if err != nil {
		t.Fatalf("compile test wordlist: %v", err)
	}
	return c
}

type fakeInspector struct {
	channels map[string]ChannelInfo
	err      error
}

func (f fakeInspector) Inspect(_ context.Context, channelID string) (ChannelInfo, error) {
	if f.err != nil {
		return ChannelInfo{}, f.err
	}
	if info, ok := f.channels[channelID]; ok {
		return info, nil
	}
	return ChannelInfo{BaseID: channelID}, nil
}

type fakeResolver struct {
	guilds map[string]string
}

func (f fakeResolver) ResolveInvite(ctx context.Context, code string) (string, error) {
	switch code {
	case "slow":
		<-ctx.Done()
		return "", ctx.Err()
	case "broken":
		return "", errors.New("unknown invite")
	}
	if guild, ok := f.guilds[code]; ok {
		return guild, nil
	}
	return "", errors.New("unknown invite")
}

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return "", errors.New("not found")
}

// bareMessage has no content capabilities at all.
type bareMessage struct{}

func (bareMessage) ID() string        { return "m0" }
func (bareMessage) ChannelID() string { return "general" }
func (bareMessage) GuildID() string   { return "g1" }
func (bareMessage) Author() Author    { return Author{ID: "u1"} }

type fakeExecutor struct {
	mu        sync.Mutex
	deleted   int
	suppress  int
	warnings  []Effect
	notices   []string
	deleteErr error
	noticeErr error
}

func (f *fakeExecutor) DeleteMessage(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	return f.deleteErr
}

func (f *fakeExecutor) SuppressEmbeds(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppress++
	return nil
}

func (f *fakeExecutor) Warn(_ context.Context, effect Effect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, effect)
	return nil
}

func (f *fakeExecutor) SendNotice(_ context.Context, _ string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, content)
	return f.noticeErr
}

func message(body string) Snapshot {
	return Snapshot{
		MessageID: "m1",
		Channel:   "general",
		Guild:     "g1",
		Sender:    Author{ID: "u1"},
		Body:      body,
		BodyKnown: true,
	}
}
