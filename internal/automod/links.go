package automod

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// DiscordEndpoint is Discord's OAuth2 endpoint. Bot invites are authorize
// links against it.
var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var (
	invitePattern  = regexp.MustCompile(`(?i)discord(?:(?:app)?\.com/invite|\.gg(?:/invite)?)/([\w-]{2,255})`)
	botLinkPattern = regexp.MustCompile(`(?i)discord(?:app)?\.com/(?:api/)?` + regexp.QuoteMeta(authorizePath(DiscordEndpoint)))
	emojiPattern   = regexp.MustCompile(`<a:\w{2,32}:\d{17,20}>`)
)

func authorizePath(endpoint oauth2.Endpoint) string {
	parsed, err := url.Parse(endpoint.AuthURL)
	if err != nil {
		return "oauth2/authorize"
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// BotInviteURL builds the authorize link that adds an application as a bot
// with the given permission bits.
func BotInviteURL(clientID string, permissions int64) string {
	cfg := oauth2.Config{
		ClientID: clientID,
		Endpoint: DiscordEndpoint,
		Scopes:   []string{"bot", "applications.commands"},
	}
	return cfg.AuthCodeURL("", oauth2.SetAuthURLParam("permissions", strconv.FormatInt(permissions, 10)))
}

// InviteCodes returns every invite code in text, in order.
func InviteCodes(text string) []string {
	var codes []string
	for _, match := range invitePattern.FindAllStringSubmatch(text, -1) {
		codes = append(codes, match[1])
	}
	return codes
}

// BotLinks returns every bot authorize link prefix in text.
func BotLinks(text string) []string {
	return botLinkPattern.FindAllString(text, -1)
}

func AnimatedEmoji(text string) []string {
	return emojiPattern.FindAllString(text, -1)
}

// EmojiWeight scores animated emoji volume. Nine or fewer is no violation;
// from ten on the weight grows by one per further ten.
func EmojiWeight(count int) (int, bool) {
	if count <= 9 {
		return 0, false
	}
	return (count - 10) / 10, true
}
