package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warden-automod/internal/analytics"
	"warden-automod/internal/automod"
	"warden-automod/internal/censor"
	"warden-automod/internal/config"
	"warden-automod/internal/invites"
	"warden-automod/internal/messaging"
	"warden-automod/internal/modules/audit"
	"warden-automod/internal/storage"
	"warden-automod/internal/warnings"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const botPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionManageMessages |
	discordgo.PermissionManageNicknames |
	discordgo.PermissionModerateMembers

// gatewayIntents covers guild traffic only; direct messages are never
// moderated.
const gatewayIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildInvites |
	discordgo.IntentsMessageContent

// Publisher forwards violation events to an external consumer.
type Publisher interface {
	PublishViolation(event messaging.ViolationEvent) error
}

type inviteForgetter interface {
	Forget(ctx context.Context, code string) error
}

// Deps are the collaborators built by main.
type Deps struct {
	Censor    *censor.Censor
	Store     *storage.Store
	Audit     *audit.Logger
	Analytics *analytics.Service
	// Redis enables the invite cache when set.
	Redis *redis.Client
	// Publisher is optional.
	Publisher Publisher
}

type Bot struct {
	cfg         config.Config
	logger      *zap.Logger
	session     *discordgo.Session
	censor      *censor.Censor
	evaluator   *automod.Evaluator
	dispatcher  *automod.Dispatcher
	executor    automod.Executor
	notifier    warnings.Notifier
	warnings    *warnings.Service
	audit       *audit.Logger
	analytics   *analytics.Service
	publisher   Publisher
	inviteCache inviteForgetter
	auditAgg    map[string]*auditAggregate
	auditAggMu  sync.Mutex
}

type auditAggregate struct {
	channelID string
	messageID string
	count     int
	lastAt    time.Time
}

func New(cfg config.Config, logger *zap.Logger, deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = gatewayIntents

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		session:   session,
		censor:    deps.Censor,
		audit:     deps.Audit,
		analytics: deps.Analytics,
		publisher: deps.Publisher,
		auditAgg:  make(map[string]*auditAggregate),
	}

	var resolver invites.Resolver = invites.NewSessionResolver(session)
	if deps.Redis != nil {
		cached := invites.NewCachedResolver(deps.Redis, resolver, time.Duration(cfg.Redis.InviteTTLMinutes)*time.Minute, logger)
		resolver = cached
		b.inviteCache = cached
	}

	var fetcher automod.TextFetcher
	if cfg.Attachments.Enabled {
		fetcher = automod.NewHTTPFetcher(
			time.Duration(cfg.Attachments.TimeoutSeconds)*time.Second,
			cfg.Attachments.MaxBytes,
			cfg.Attachments.Hosts,
		)
	}

	b.evaluator = automod.NewEvaluator(deps.Censor, &channelInspector{session: session}, resolver, fetcher, automod.Options{
		LinkExemptChannels: cfg.Automod.LinkExemptChannels,
		InviteTimeout:      time.Duration(cfg.Automod.InviteTimeoutSeconds) * time.Second,
		MaxFetches:         cfg.Attachments.MaxConcurrent,
	}, logger)
	b.dispatcher = automod.NewDispatcher(automod.DispatchOptions{
		BotsChannelID:      cfg.Automod.BotsChannelID,
		AdvertiseChannelID: cfg.Automod.AdvertiseChannelID,
		NoticePrefix:       cfg.Automod.NoticePrefix,
	})

	exec := &sessionExecutor{b: b}
	b.executor = exec
	b.notifier = exec

	var auditor warnings.Auditor
	if deps.Audit != nil {
		auditor = deps.Audit
	}
	b.warnings = warnings.New(deps.Store, exec, auditor, warnings.Config{
		Expiry:         time.Duration(cfg.Strikes.ExpiryDays) * 24 * time.Hour,
		Threshold:      cfg.Strikes.Threshold,
		TimeoutLength:  time.Duration(cfg.Actions.TimeoutMinutes) * time.Minute,
		ActionsEnabled: cfg.Actions.Enabled,
		DMEnabled:      cfg.Notifications.DMWarnEnabled,
	}, logger)

	if b.audit != nil {
		b.audit.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
			if !b.cfg.Notifications.AuditToChannel {
				return
			}
			b.notifyAudit(ctx, entry)
		})
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberUpdate)
	b.session.AddHandler(b.onInviteDelete)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)),
		zap.String("invite_url", automod.BotInviteURL(event.User.ID, botPermissions)),
	)
}

func (b *Bot) notifyAudit(ctx context.Context, entry storage.AuditLog) {
	_ = ctx
	channelID := b.cfg.Notifications.AuditChannelID
	if channelID == "" {
		return
	}

	key := entry.GuildID + "|" + entry.Level + "|" + entry.Event + "|" + entry.Details + "|" + entry.UserID
	window := 10 * time.Minute

	b.auditAggMu.Lock()
	agg := b.auditAgg[key]
	if agg != nil && agg.channelID == channelID && time.Since(agg.lastAt) <= window {
		agg.count++
		agg.lastAt = time.Now()
		count := agg.count
		messageID := agg.messageID
		b.auditAggMu.Unlock()
		if _, err := b.session.ChannelMessageEditEmbed(channelID, messageID, b.auditEmbed(entry, count)); err == nil {
			return
		}
		b.auditAggMu.Lock()
		delete(b.auditAgg, key)
	}
	b.auditAggMu.Unlock()

	msg, err := b.session.ChannelMessageSendEmbed(channelID, b.auditEmbed(entry, 1))
	if err != nil || msg == nil {
		return
	}
	b.auditAggMu.Lock()
	b.auditAgg[key] = &auditAggregate{channelID: channelID, messageID: msg.ID, count: 1, lastAt: time.Now()}
	b.auditAggMu.Unlock()
}

func (b *Bot) auditEmbed(entry storage.AuditLog, count int) *discordgo.MessageEmbed {
	user := "system"
	if entry.UserID != "" {
		user = "<@" + entry.UserID + ">"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Event", Value: entry.Event, Inline: false},
		{Name: "Level", Value: entry.Level, Inline: true},
		{Name: "User", Value: user, Inline: true},
	}
	if count > 1 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Count", Value: fmt.Sprintf("%d", count), Inline: true})
	}
	if entry.Details != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Details", Value: truncate(entry.Details, 1024), Inline: false})
	}
	color := b.cfg.Notifications.EmbedColors.Action
	if entry.Level == audit.LevelCrit {
		color = b.cfg.Notifications.EmbedColors.Warning
	}
	return &discordgo.MessageEmbed{
		Title:     "Automod",
		Color:     color,
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Fields:    fields,
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
