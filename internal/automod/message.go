package automod

import "context"

type Author struct {
	ID  string
	Bot bool
}

// Message is the minimum a message must expose to be evaluated. Content is
// offered through the optional Has* capabilities.
type Message interface {
	ID() string
	ChannelID() string
	GuildID() string
	Author() Author
}

// HasText exposes the message body. known is false when the body could not
// be loaded, in which case body checks are skipped.
type HasText interface {
	Text() (body string, known bool)
}

type HasEmbeds interface {
	Embeds() []Embed
}

type HasStickers interface {
	StickerNames() []string
}

type HasAttachments interface {
	Attachments() []Attachment
}

type Embed struct {
	Title       string
	Description string
	Footer      string
	Author      string
	Fields      []EmbedField
}

type EmbedField struct {
	Name  string
	Value string
}

// Texts returns the scannable strings of the embed in display order.
func (e Embed) Texts() []string {
	texts := []string{e.Description, e.Title, e.Footer, e.Author}
	for _, field := range e.Fields {
		texts = append(texts, field.Name, field.Value)
	}
	return texts
}

type Attachment struct {
	Name        string
	Description string
	ContentType string
	URL         string
}

// Snapshot is a plain Message carrying every capability.
type Snapshot struct {
	MessageID    string
	Channel      string
	Guild        string
	Sender       Author
	Body         string
	BodyKnown    bool
	EmbedList    []Embed
	Stickers     []string
	AttachedList []Attachment
}

func (s Snapshot) ID() string                { return s.MessageID }
func (s Snapshot) ChannelID() string         { return s.Channel }
func (s Snapshot) GuildID() string           { return s.Guild }
func (s Snapshot) Author() Author            { return s.Sender }
func (s Snapshot) Text() (string, bool)      { return s.Body, s.BodyKnown }
func (s Snapshot) Embeds() []Embed           { return s.EmbedList }
func (s Snapshot) StickerNames() []string    { return s.Stickers }
func (s Snapshot) Attachments() []Attachment { return s.AttachedList }

// ChannelInfo describes the channel a message was posted in.
type ChannelInfo struct {
	// BaseID is the channel itself, or the parent channel of a thread.
	BaseID string
	// Exempt is set for DMs and channels hidden from @everyone.
	Exempt bool
}

type ChannelInspector interface {
	Inspect(ctx context.Context, channelID string) (ChannelInfo, error)
}

// InviteResolver returns the id of the guild an invite code points to.
type InviteResolver interface {
	ResolveInvite(ctx context.Context, code string) (string, error)
}

type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

func textOf(msg Message) (string, bool) {
	if m, ok := msg.(HasText); ok {
		return m.Text()
	}
	return "", false
}

func embedsOf(msg Message) []Embed {
	if m, ok := msg.(HasEmbeds); ok {
		return m.Embeds()
	}
	return nil
}

func stickersOf(msg Message) []string {
	if m, ok := msg.(HasStickers); ok {
		return m.StickerNames()
	}
	return nil
}

func attachmentsOf(msg Message) []Attachment {
	if m, ok := msg.(HasAttachments); ok {
		return m.Attachments()
	}
	return nil
}
