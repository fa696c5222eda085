package automod

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"warden-automod/internal/metrics"

	"go.uber.org/multierr"
)

type EffectKind int

const (
	EffectDelete EffectKind = iota
	EffectSuppressEmbeds
	EffectWarn
	EffectNotice
)

func (k EffectKind) String() string {
	switch k {
	case EffectDelete:
		return "delete"
	case EffectSuppressEmbeds:
		return "suppress_embeds"
	case EffectWarn:
		return "warn"
	case EffectNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Effect is one independent enforcement action. Fields that do not apply
// to a kind are left empty.
type Effect struct {
	Kind      EffectKind
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Category  Category
	Reason    string
	Strikes   int
	Evidence  string
	Content   string
}

func (e Effect) label() string {
	if e.Category == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + " " + string(e.Category)
}

type Plan struct {
	Effects  []Effect
	Violated bool
}

// Executor carries out effects against the outside world.
type Executor interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SuppressEmbeds(ctx context.Context, channelID, messageID string) error
	Warn(ctx context.Context, effect Effect) error
	SendNotice(ctx context.Context, channelID, content string) error
}

type DispatchOptions struct {
	// BotsChannelID is the base channel where emoji volume is not enforced.
	BotsChannelID string
	// AdvertiseChannelID is mentioned in invite and bot link notices.
	AdvertiseChannelID string
	NoticePrefix       string
}

type Dispatcher struct {
	opts DispatchOptions
}

func NewDispatcher(opts DispatchOptions) *Dispatcher {
	if opts.NoticePrefix == "" {
		opts.NoticePrefix = "⛔"
	}
	return &Dispatcher{opts: opts}
}

// Plan turns a report into effects. Primary violations delete the message;
// embed-only hits suppress embeds instead. Each triggered category gets one
// warning and one notice, and the message is deleted at most once.
func (d *Dispatcher) Plan(report Report, msg Message) Plan {
	plan := Plan{Violated: report.Violated()}
	userID := msg.Author().ID
	channelID := msg.ChannelID()

	deletion := Effect{Kind: EffectDelete, GuildID: msg.GuildID(), ChannelID: channelID, MessageID: msg.ID(), UserID: userID}
	deleting := false
	if plan.Violated {
		plan.Effects = append(plan.Effects, deletion)
		deleting = true
	} else if report.Embeds.Triggered {
		plan.Effects = append(plan.Effects, Effect{
			Kind:      EffectSuppressEmbeds,
			GuildID:   msg.GuildID(),
			ChannelID: channelID,
			MessageID: msg.ID(),
			UserID:    userID,
		})
	}

	if language := report.LanguageStrikes(); language.Triggered {
		plan.Effects = append(plan.Effects, d.warnAndNotice(msg, CategoryLanguage, language,
			"Watch your language!",
			"Sent message with words:\n"+strings.Join(language.Evidence, "\n"),
			"language!")...)
	}
	if report.Invites.Triggered {
		plan.Effects = append(plan.Effects, d.warnAndNotice(msg, CategoryInvites, report.Invites,
			"Please don't send server invites in that channel!",
			strings.Join(report.Invites.Evidence, "\n"),
			"only post invite links in "+d.advertise()+"!")...)
	}
	if report.BotLinks.Triggered {
		plan.Effects = append(plan.Effects, d.warnAndNotice(msg, CategoryBotLinks, report.BotLinks,
			"Please don't post bot invite links!",
			strings.Join(report.BotLinks.Evidence, "\n"),
			"bot invites go to "+d.advertise()+"!")...)
	}

	if report.Emoji.Triggered && !d.isBotsChannel(report.BaseChannelID) {
		plan.Effects = append(plan.Effects, d.warnAndNotice(msg, CategoryEmoji, report.Emoji,
			"Please don't post that many animated emojis!",
			strings.Join(report.Emoji.Evidence, "\n"),
			"lay off on the animated emojis please!")...)
		if !deleting {
			plan.Effects = dropKind(plan.Effects, EffectSuppressEmbeds)
			plan.Effects = append(plan.Effects, deletion)
		}
	}
	return plan
}

func (d *Dispatcher) warnAndNotice(msg Message, category Category, counter Counter, reason, evidence, notice string) []Effect {
	userID := msg.Author().ID
	return []Effect{
		{
			Kind:      EffectWarn,
			GuildID:   msg.GuildID(),
			ChannelID: msg.ChannelID(),
			MessageID: msg.ID(),
			UserID:    userID,
			Category:  category,
			Reason:    reason,
			Strikes:   counter.Strikes,
			Evidence:  evidence,
		},
		{
			Kind:      EffectNotice,
			GuildID:   msg.GuildID(),
			ChannelID: msg.ChannelID(),
			UserID:    userID,
			Category:  category,
			Content:   fmt.Sprintf("%s <@%s>, %s", d.opts.NoticePrefix, userID, notice),
		},
	}
}

func (d *Dispatcher) advertise() string {
	if d.opts.AdvertiseChannelID == "" {
		return "the advertising channel"
	}
	return "<#" + d.opts.AdvertiseChannelID + ">"
}

func (d *Dispatcher) isBotsChannel(channelID string) bool {
	return d.opts.BotsChannelID != "" && channelID == d.opts.BotsChannelID
}

func dropKind(effects []Effect, kind EffectKind) []Effect {
	kept := effects[:0]
	for _, effect := range effects {
		if effect.Kind != kind {
			kept = append(kept, effect)
		}
	}
	return kept
}

// Execute runs every effect concurrently. A failing effect never stops its
// siblings; all failures are combined into the returned error.
func Execute(ctx context.Context, plan Plan, exec Executor) error {
	errs := make([]error, len(plan.Effects))
	var wg sync.WaitGroup
	for i, effect := range plan.Effects {
		i, effect := i, effect
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runEffect(ctx, effect, exec); err != nil {
				metrics.EffectFailures.WithLabelValues(effect.Kind.String()).Inc()
				errs[i] = fmt.Errorf("%s: %w", effect.label(), err)
			}
		}()
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

func runEffect(ctx context.Context, effect Effect, exec Executor) error {
	switch effect.Kind {
	case EffectDelete:
		return exec.DeleteMessage(ctx, effect.ChannelID, effect.MessageID)
	case EffectSuppressEmbeds:
		return exec.SuppressEmbeds(ctx, effect.ChannelID, effect.MessageID)
	case EffectWarn:
		return exec.Warn(ctx, effect)
	case EffectNotice:
		return exec.SendNotice(ctx, effect.ChannelID, effect.Content)
	default:
		return fmt.Errorf("unknown effect kind %d", effect.Kind)
	}
}
