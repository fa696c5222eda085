package bot

import (
	"context"
	"errors"
	"time"

	"warden-automod/internal/automod"
	"warden-automod/internal/warnings"

	"github.com/bwmarrin/discordgo"
)

// sessionExecutor applies automod effects and warning notifications through
// the Discord session.
type sessionExecutor struct {
	b *Bot
}

func (e *sessionExecutor) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return e.b.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (e *sessionExecutor) SuppressEmbeds(ctx context.Context, channelID, messageID string) error {
	_, err := e.b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      messageID,
		Channel: channelID,
		Flags:   discordgo.MessageFlagsSuppressEmbeds,
	}, discordgo.WithContext(ctx))
	return err
}

func (e *sessionExecutor) Warn(ctx context.Context, effect automod.Effect) error {
	if e.b.warnings == nil {
		return errors.New("warnings service not configured")
	}
	_, err := e.b.warnings.Warn(ctx, warnings.Request{
		GuildID:  effect.GuildID,
		UserID:   effect.UserID,
		Category: string(effect.Category),
		Reason:   effect.Reason,
		Strikes:  effect.Strikes,
		Evidence: effect.Evidence,
	})
	return err
}

func (e *sessionExecutor) SendNotice(ctx context.Context, channelID, content string) error {
	if !e.b.cfg.Notifications.ChannelWarnEnabled {
		return nil
	}
	_, err := e.b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}, discordgo.WithContext(ctx))
	return err
}

func (e *sessionExecutor) DirectMessage(ctx context.Context, userID string, notice warnings.Notice) error {
	channel, err := e.b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	title := "Automod warning"
	if guild, err := e.b.session.State.Guild(notice.GuildID); err == nil && guild.Name != "" {
		title = "Automod warning in " + guild.Name
	}
	embed := e.b.commandEmbed(title, truncate(warnings.FormatNotice(notice), 4096), e.b.cfg.Notifications.EmbedColors.Warning, nil)
	_, err = e.b.session.ChannelMessageSendEmbed(channel.ID, embed, discordgo.WithContext(ctx))
	return err
}

func (e *sessionExecutor) Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	return e.b.session.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}
