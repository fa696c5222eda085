package automod

import (
	"strings"

	"warden-automod/internal/censor"
	"warden-automod/internal/metrics"
)

const (
	minPingableLength = 3
	fallbackNickname  = "Pingable Name"
)

// Pingablify keeps the characters that can be typed on a US keyboard and
// collapses whitespace. When fewer than three characters survive, the
// username is tried, then a fixed placeholder.
func Pingablify(name, username string) string {
	if cleaned := typable(name); len(cleaned) >= minPingableLength {
		return cleaned
	}
	if cleaned := typable(username); len(cleaned) >= minPingableLength {
		return cleaned
	}
	return fallbackNickname
}

func typable(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= ' ' && r <= '~' {
			b.WriteRune(r)
		} else if r == '\t' || r == '\n' {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NicknameReview is the outcome of checking a display name.
type NicknameReview struct {
	// Nickname is the replacement, empty when the name may stay.
	Nickname string
	Censored bool
	Strikes  int
	Evidence []string
}

// ReviewNickname censors a display name and makes it pingable. A
// replacement that would itself be flagged is never proposed.
func ReviewNickname(c *censor.Censor, displayName, username string) NicknameReview {
	metrics.Scans.WithLabelValues("nickname").Inc()

	var review NicknameReview
	candidate := displayName
	if res, ok := c.Scan(displayName); ok {
		review.Censored = true
		review.Strikes = res.Strikes
		review.Evidence = res.Words()
		candidate = res.Censored
	}
	candidate = Pingablify(candidate, username)
	if candidate == displayName {
		return review
	}
	if _, dirty := c.Scan(candidate); dirty {
		return review
	}
	review.Nickname = candidate
	return review
}
