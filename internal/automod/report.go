package automod

type Category string

const (
	CategoryLanguage Category = "language"
	CategoryInvites  Category = "invites"
	CategoryBotLinks Category = "bot_links"
	CategoryEmoji    Category = "animated_emoji"
)

// Counter is one violation category. Triggered and Strikes are independent:
// a triggered counter may carry zero strikes.
type Counter struct {
	Triggered bool     `json:"triggered"`
	Strikes   int      `json:"strikes"`
	Evidence  []string `json:"evidence,omitempty"`
}

func (c *Counter) add(other Counter) {
	if !other.Triggered {
		return
	}
	c.Triggered = true
	c.Strikes += other.Strikes
	c.Evidence = append(c.Evidence, other.Evidence...)
}

// Report is the outcome of evaluating one message.
type Report struct {
	GuildID       string `json:"guild_id"`
	ChannelID     string `json:"channel_id"`
	BaseChannelID string `json:"base_channel_id"`
	MessageID     string `json:"message_id"`
	AuthorID      string `json:"author_id"`

	// Language covers the body, stickers and attachments.
	Language Counter `json:"language"`
	Embeds   Counter `json:"embeds"`
	Invites  Counter `json:"invites"`
	BotLinks Counter `json:"bot_links"`
	Emoji    Counter `json:"animated_emoji"`

	// Censored is the masked body, empty when the body was clean or unknown.
	Censored string `json:"censored,omitempty"`
}

// LanguageStrikes merges embed hits into the language counter, discounting
// the first embed strike.
func (r Report) LanguageStrikes() Counter {
	merged := Counter{
		Triggered: r.Language.Triggered,
		Strikes:   r.Language.Strikes,
		Evidence:  append([]string(nil), r.Language.Evidence...),
	}
	if r.Embeds.Triggered {
		merged.Triggered = true
		merged.Strikes += max(r.Embeds.Strikes-1, 0)
		merged.Evidence = append(merged.Evidence, r.Embeds.Evidence...)
	}
	return merged
}

// Violated reports whether a primary category triggered. Embed-only and
// emoji hits do not count.
func (r Report) Violated() bool {
	return r.Language.Triggered || r.Invites.Triggered || r.BotLinks.Triggered
}
