package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"warden-automod/internal/automod"
	"warden-automod/internal/messaging"
	"warden-automod/internal/metrics"
	"warden-automod/internal/modules/audit"
	"warden-automod/internal/warnings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const moderationTimeout = 30 * time.Second

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Message == nil || event.Author == nil || event.GuildID == "" {
		return
	}
	if session.State.User != nil && event.Author.ID == session.State.User.ID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), moderationTimeout)
	defer cancel()
	b.moderate(ctx, snapshot(event.Message, event.GuildID, true))
}

// onMessageUpdate re-evaluates edits. Partial updates are completed from the
// API; when that fails the body is treated as unknown and the author is taken
// from the cached copy of the message.
func (b *Bot) onMessageUpdate(session *discordgo.Session, event *discordgo.MessageUpdate) {
	if event.Message == nil || event.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), moderationTimeout)
	defer cancel()

	msg := event.Message
	bodyKnown := true
	if msg.Author == nil {
		full, err := session.ChannelMessage(msg.ChannelID, msg.ID, discordgo.WithContext(ctx))
		if err != nil {
			b.logger.Debug("fetch edited message failed", zap.String("message_id", msg.ID), zap.Error(err))
			bodyKnown = false
			msg = withPreviousAuthor(msg, event.BeforeUpdate)
		} else {
			if full.GuildID == "" {
				full.GuildID = event.GuildID
			}
			msg = full
		}
	}
	if messageAuthor(msg).ID == "" {
		return
	}
	if session.State.User != nil && messageAuthor(msg).ID == session.State.User.ID {
		return
	}
	b.moderate(ctx, snapshot(msg, event.GuildID, bodyKnown))
}

func withPreviousAuthor(msg, before *discordgo.Message) *discordgo.Message {
	if before == nil {
		return msg
	}
	partial := *msg
	partial.Author = before.Author
	if partial.Author == nil {
		partial.Member = before.Member
	}
	return &partial
}

// moderate evaluates a message and carries out the resulting plan. In audit
// mode the plan is only recorded.
func (b *Bot) moderate(ctx context.Context, msg automod.Message) {
	report := b.evaluator.Evaluate(ctx, msg)
	plan := b.dispatcher.Plan(report, msg)
	if len(plan.Effects) == 0 {
		return
	}

	auditOnly := b.cfg.AuditOnly()
	b.publish(report, plan, auditOnly)

	if auditOnly {
		b.logger.Info("automod match (audit mode)",
			zap.String("guild_id", report.GuildID),
			zap.String("user_id", report.AuthorID),
			zap.Strings("effects", effectLabels(plan)),
		)
		b.auditLog(ctx, audit.LevelInfo, report.GuildID, report.AuthorID, audit.EventAuditOnlyMatch, strings.Join(effectLabels(plan), ", "))
		return
	}

	if err := automod.Execute(ctx, plan, b.executor); err != nil {
		b.logger.Warn("automod enforcement failed",
			zap.String("guild_id", report.GuildID),
			zap.String("message_id", report.MessageID),
			zap.Error(err),
		)
		b.auditLog(ctx, audit.LevelWarn, report.GuildID, report.AuthorID, audit.EventEnforcement, err.Error())
	}
}

func (b *Bot) publish(report automod.Report, plan automod.Plan, auditOnly bool) {
	if b.publisher == nil {
		return
	}
	event := messaging.ViolationEvent{
		Report:    report,
		Effects:   effectLabels(plan),
		AuditOnly: auditOnly,
		At:        time.Now().UTC(),
	}
	if err := b.publisher.PublishViolation(event); err != nil {
		b.logger.Debug("publish violation failed", zap.Error(err))
	}
}

func (b *Bot) auditLog(ctx context.Context, level, guildID, userID, event, details string) {
	if b.audit == nil {
		return
	}
	b.audit.Log(ctx, level, guildID, userID, event, details)
}

func effectLabels(plan automod.Plan) []string {
	labels := make([]string, 0, len(plan.Effects))
	for _, effect := range plan.Effects {
		label := effect.Kind.String()
		if effect.Category != "" {
			label += ":" + string(effect.Category)
		}
		labels = append(labels, label)
	}
	return labels
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), moderationTimeout)
	defer cancel()
	b.reviewMember(ctx, event.GuildID, event.Member, true)
}

func (b *Bot) onGuildMemberUpdate(session *discordgo.Session, event *discordgo.GuildMemberUpdate) {
	if event.Member == nil {
		return
	}
	if event.BeforeUpdate != nil && displayName(event.BeforeUpdate) == displayName(event.Member) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), moderationTimeout)
	defer cancel()
	b.reviewMember(ctx, event.GuildID, event.Member, false)
}

// reviewMember censors the display name of a member. New members get a
// direct message; renames of existing members are warned.
func (b *Bot) reviewMember(ctx context.Context, guildID string, member *discordgo.Member, joined bool) {
	if !b.cfg.Automod.CensorNicknames || member.User == nil || member.User.Bot {
		return
	}
	name := displayName(member)
	review := automod.ReviewNickname(b.censor, name, member.User.Username)
	if review.Nickname == "" {
		return
	}
	userID := member.User.ID

	if b.cfg.AuditOnly() {
		b.auditLog(ctx, audit.LevelInfo, guildID, userID, audit.EventAuditOnlyMatch,
			fmt.Sprintf("nickname %q would become %q", name, review.Nickname))
		return
	}

	if err := b.session.GuildMemberNickname(guildID, userID, review.Nickname, discordgo.WithContext(ctx)); err != nil {
		b.logger.Warn("nickname update failed", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
		b.auditLog(ctx, audit.LevelWarn, guildID, userID, audit.EventEnforcement, "nickname: "+err.Error())
		return
	}
	b.auditLog(ctx, audit.LevelInfo, guildID, userID, audit.EventNickname,
		fmt.Sprintf("%q -> %q", name, review.Nickname))

	if !review.Censored {
		b.directMessage(ctx, userID, warnings.Notice{
			GuildID:  guildID,
			Category: "nickname",
			Reason:   "Removed characters that are hard to type or ping from your display name. It is now " + review.Nickname + ".",
		})
		return
	}
	notice := warnings.Notice{
		GuildID:  guildID,
		Category: "nickname",
		Reason:   "Your display name was censored.",
		Strikes:  review.Strikes,
		Evidence: strings.Join(review.Evidence, "\n"),
	}
	if joined {
		b.directMessage(ctx, userID, notice)
		return
	}
	if _, err := b.warnings.Warn(ctx, warnings.Request{
		GuildID:  guildID,
		UserID:   userID,
		Category: notice.Category,
		Reason:   notice.Reason,
		Strikes:  notice.Strikes,
		Evidence: notice.Evidence,
	}); err != nil {
		b.logger.Warn("nickname warning failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) directMessage(ctx context.Context, userID string, notice warnings.Notice) {
	if !b.cfg.Notifications.DMWarnEnabled || b.notifier == nil {
		return
	}
	if err := b.notifier.DirectMessage(ctx, userID, notice); err != nil {
		b.logger.Debug("nickname dm failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) onInviteDelete(session *discordgo.Session, event *discordgo.InviteDelete) {
	if b.inviteCache == nil || event.Code == "" {
		return
	}
	if err := b.inviteCache.Forget(context.Background(), event.Code); err != nil {
		b.logger.Debug("invite cache forget failed", zap.String("code", event.Code), zap.Error(err))
	}
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	metrics.Commands.WithLabelValues(data.Name).Inc()
	switch data.Name {
	case "censor":
		b.handleCensorCommand(session, interaction, data.Options)
	case "strikes":
		b.handleStrikesCommand(ctx, session, interaction, data.Options)
	case "report":
		b.handleReportCommand(ctx, session, interaction, data.Options)
	}
}

func (b *Bot) handleCensorCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	var text string
	for _, opt := range options {
		if opt.Name == "text" {
			text = opt.StringValue()
		}
	}
	colors := b.cfg.Notifications.EmbedColors

	res, dirty := b.censor.Scan(text)
	if !dirty {
		b.respondEmbed(session, interaction, b.commandEmbed("Censor preview", "Nothing to censor.", colors.Action, nil), true)
		return
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Censored", Value: truncate(res.Censored, 1024), Inline: false},
		{Name: "Strikes", Value: fmt.Sprintf("%d", res.Strikes), Inline: true},
		{Name: "Matches", Value: truncate(strings.Join(res.Words(), ", "), 1024), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Censor preview", "", colors.Warning, fields), true)
}

func (b *Bot) handleStrikesCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	colors := b.cfg.Notifications.EmbedColors
	if interaction.GuildID == "" || b.analytics == nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Strikes", "Only available in a server.", colors.Error, nil), true)
		return
	}

	var userID string
	if interaction.Member != nil && interaction.Member.User != nil {
		userID = interaction.Member.User.ID
	}
	for _, opt := range options {
		if opt.Name == "user" {
			userID = opt.UserValue(nil).ID
		}
	}
	if userID == "" {
		b.respondEmbed(session, interaction, b.commandEmbed("Strikes", "Unknown member.", colors.Error, nil), true)
		return
	}

	standing, err := b.analytics.MemberStrikes(ctx, interaction.GuildID, userID)
	if err != nil {
		b.logger.Warn("strikes lookup failed", zap.String("user_id", userID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Strikes", "Lookup failed.", colors.Error, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Active strikes", Value: fmt.Sprintf("%d", standing.Total), Inline: true},
	}
	if b.cfg.Strikes.Threshold > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Threshold", Value: fmt.Sprintf("%d", b.cfg.Strikes.Threshold), Inline: true})
	}
	for _, category := range standing.Categories {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   category.Category,
			Value:  fmt.Sprintf("%d strikes in %d warnings", category.Strikes, category.Warnings),
			Inline: true,
		})
	}
	var recent []string
	for _, warning := range standing.Recent {
		recent = append(recent, fmt.Sprintf("<t:%d:d> %s (%d)", warning.CreatedAt.Unix(), warning.Reason, warning.Strikes))
	}
	if len(recent) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Recent", Value: truncate(strings.Join(recent, "\n"), 1024), Inline: false})
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Strikes", "<@"+userID+">", colors.Action, fields), true)
}

func (b *Bot) handleReportCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	colors := b.cfg.Notifications.EmbedColors
	if interaction.GuildID == "" || b.analytics == nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Automod report", "Only available in a server.", colors.Error, nil), true)
		return
	}

	days := int64(7)
	for _, opt := range options {
		if opt.Name == "days" && opt.IntValue() > 0 {
			days = opt.IntValue()
		}
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	report, err := b.analytics.Report(ctx, interaction.GuildID, since)
	if err != nil {
		b.logger.Warn("report failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Automod report", "Report failed.", colors.Error, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Entries", Value: fmt.Sprintf("%d", report.Total), Inline: true},
	}
	if len(report.ByLevel) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "By level", Value: formatCounts(report.ByLevel), Inline: true})
	}
	if len(report.ByEvent) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "By event", Value: truncate(formatCounts(report.ByEvent), 1024), Inline: false})
	}
	description := fmt.Sprintf("Last %d days", days)
	b.respondEmbed(session, interaction, b.commandEmbed("Automod report", description, colors.Action, fields), true)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %d", key, counts[key]))
	}
	return strings.Join(lines, "\n")
}
