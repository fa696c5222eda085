package bot

import (
	"context"

	"warden-automod/internal/automod"

	"github.com/bwmarrin/discordgo"
)

// snapshot converts a gateway message. bodyKnown is false for partial
// updates whose content could not be fetched.
func snapshot(m *discordgo.Message, guildID string, bodyKnown bool) automod.Snapshot {
	snap := automod.Snapshot{
		MessageID: m.ID,
		Channel:   m.ChannelID,
		Guild:     m.GuildID,
		Sender:    messageAuthor(m),
		Body:      m.Content,
		BodyKnown: bodyKnown,
	}
	if snap.Guild == "" {
		snap.Guild = guildID
	}
	for _, embed := range m.Embeds {
		if embed != nil {
			snap.EmbedList = append(snap.EmbedList, convertEmbed(embed))
		}
	}
	for _, sticker := range m.StickerItems {
		if sticker != nil && sticker.Name != "" {
			snap.Stickers = append(snap.Stickers, sticker.Name)
		}
	}
	for _, attachment := range m.Attachments {
		if attachment == nil {
			continue
		}
		snap.AttachedList = append(snap.AttachedList, automod.Attachment{
			Name:        attachment.Filename,
			ContentType: attachment.ContentType,
			URL:         attachment.URL,
		})
	}
	return snap
}

func messageAuthor(m *discordgo.Message) automod.Author {
	user := m.Author
	if user == nil && m.Member != nil {
		user = m.Member.User
	}
	if user == nil {
		return automod.Author{}
	}
	return automod.Author{ID: user.ID, Bot: user.Bot}
}

func convertEmbed(embed *discordgo.MessageEmbed) automod.Embed {
	out := automod.Embed{
		Title:       embed.Title,
		Description: embed.Description,
	}
	if embed.Footer != nil {
		out.Footer = embed.Footer.Text
	}
	if embed.Author != nil {
		out.Author = embed.Author.Name
	}
	for _, field := range embed.Fields {
		if field != nil {
			out.Fields = append(out.Fields, automod.EmbedField{Name: field.Name, Value: field.Value})
		}
	}
	return out
}

// channelInspector resolves thread parents and checks whether @everyone can
// see the base channel.
type channelInspector struct {
	session *discordgo.Session
}

func (c *channelInspector) Inspect(ctx context.Context, channelID string) (automod.ChannelInfo, error) {
	channel, err := c.channel(ctx, channelID)
	if err != nil {
		return automod.ChannelInfo{}, err
	}
	if channel.Type == discordgo.ChannelTypeDM || channel.Type == discordgo.ChannelTypeGroupDM {
		return automod.ChannelInfo{BaseID: channel.ID, Exempt: true}, nil
	}

	base := channel
	if channel.IsThread() && channel.ParentID != "" {
		parent, err := c.channel(ctx, channel.ParentID)
		if err != nil {
			return automod.ChannelInfo{}, err
		}
		base = parent
	}

	everyone := int64(discordgo.PermissionViewChannel)
	if role, err := c.session.State.Role(base.GuildID, base.GuildID); err == nil {
		everyone = role.Permissions
	}
	return automod.ChannelInfo{
		BaseID: base.ID,
		Exempt: !everyoneCanView(everyone, base.GuildID, base.PermissionOverwrites),
	}, nil
}

func (c *channelInspector) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if channel, err := c.session.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return c.session.Channel(channelID, discordgo.WithContext(ctx))
}

// everyoneCanView applies the @everyone overwrite (whose id is the guild id)
// to the role's base permissions.
func everyoneCanView(base int64, guildID string, overwrites []*discordgo.PermissionOverwrite) bool {
	if base&discordgo.PermissionAdministrator != 0 {
		return true
	}
	perms := base
	for _, overwrite := range overwrites {
		if overwrite == nil || overwrite.ID != guildID || overwrite.Type != discordgo.PermissionOverwriteTypeRole {
			continue
		}
		perms &^= overwrite.Deny
		perms |= overwrite.Allow
	}
	return perms&discordgo.PermissionViewChannel != 0
}

func displayName(member *discordgo.Member) string {
	if member == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
