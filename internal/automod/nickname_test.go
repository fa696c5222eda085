package automod

import (
	"strings"
	"testing"
)

func TestPingablify(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		username string
		want     string
	}{
		{name: "plain", display: "Alice", username: "alice", want: "Alice"},
		{name: "whitespace", display: "  lots   of\tspace ", username: "x", want: "lots of space"},
		{name: "symbols dropped", display: "★ Alice ★", username: "alice", want: "Alice"},
		{name: "username fallback", display: "★★", username: "alice", want: "alice"},
		{name: "placeholder", display: "日本", username: "ab", want: "Pingable Name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pingablify(tt.display, tt.username); got != tt.want {
				t.Fatalf("Pingablify(%q, %q) = %q, want %q", tt.display, tt.username, got, tt.want)
			}
		})
	}
}

func TestReviewNickname(t *testing.T) {
	c := testCensor(t)

	review := ReviewNickname(c, "grape lover", "someone")
	if !review.Censored || review.Strikes != 2 || review.Nickname != "g#### lover" {
		t.Fatalf("unexpected review %+v", review)
	}
	if strings.Join(review.Evidence, ",") != "grape" {
		t.Fatalf("evidence = %v", review.Evidence)
	}

	review = ReviewNickname(c, "Alice", "alice")
	if review.Censored || review.Nickname != "" {
		t.Fatalf("clean name changed: %+v", review)
	}

	review = ReviewNickname(c, "★ Alice", "alice")
	if review.Censored || review.Nickname != "Alice" {
		t.Fatalf("unpingable name not fixed: %+v", review)
	}
}

func TestReviewNicknameRefusesDirtyFallback(t *testing.T) {
	c := testCensor(t)
	review := ReviewNickname(c, "★★", "grape")
	if review.Nickname != "" {
		t.Fatalf("dirty username proposed as nickname: %+v", review)
	}
}
