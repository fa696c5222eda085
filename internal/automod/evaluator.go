package automod

import (
	"context"
	"strings"
	"time"

	"warden-automod/internal/censor"
	"warden-automod/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// LinkExemptChannels are base channels where invites and bot links are
	// allowed (rules, announcements, staff and advertising channels).
	LinkExemptChannels []string
	InviteTimeout      time.Duration
	// MaxFetches bounds concurrent attachment downloads per message.
	MaxFetches int
}

// Evaluator scans every surface of a message and builds a Report. It holds
// no per-message state and is safe for concurrent use.
type Evaluator struct {
	censor        *censor.Censor
	channels      ChannelInspector
	invites       InviteResolver
	fetcher       TextFetcher
	linkExempt    map[string]struct{}
	inviteTimeout time.Duration
	maxFetches    int
	logger        *zap.Logger
}

func NewEvaluator(c *censor.Censor, channels ChannelInspector, invites InviteResolver, fetcher TextFetcher, opts Options, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	exempt := make(map[string]struct{}, len(opts.LinkExemptChannels))
	for _, id := range opts.LinkExemptChannels {
		if id != "" {
			exempt[id] = struct{}{}
		}
	}
	if opts.InviteTimeout <= 0 {
		opts.InviteTimeout = 5 * time.Second
	}
	if opts.MaxFetches <= 0 {
		opts.MaxFetches = 4
	}
	return &Evaluator{
		censor:        c,
		channels:      channels,
		invites:       invites,
		fetcher:       fetcher,
		linkExempt:    exempt,
		inviteTimeout: opts.InviteTimeout,
		maxFetches:    opts.MaxFetches,
		logger:        logger,
	}
}

// Evaluate runs the language, link and emoji checks over msg. Lookup and
// fetch failures never fail the evaluation; they only remove evidence.
func (e *Evaluator) Evaluate(ctx context.Context, msg Message) Report {
	started := time.Now()
	defer func() {
		metrics.EvaluationSeconds.Observe(time.Since(started).Seconds())
	}()

	author := msg.Author()
	report := Report{
		GuildID:   msg.GuildID(),
		ChannelID: msg.ChannelID(),
		MessageID: msg.ID(),
		AuthorID:  author.ID,
	}
	info := e.inspect(ctx, msg.ChannelID())
	report.BaseChannelID = info.BaseID

	body, known := textOf(msg)
	stickers := stickersOf(msg)
	attachments := attachmentsOf(msg)
	embeds := embedsOf(msg)

	var (
		bodyLanguage       Counter
		censored           string
		stickerLanguage    = make([]Counter, len(stickers))
		attachmentLanguage = make([]Counter, len(attachments))
		embedLanguage      = make([]Counter, len(embeds))
		invites            Counter
		botLinks           Counter
	)

	var g errgroup.Group
	if !info.Exempt {
		if known {
			g.Go(func() error {
				bodyLanguage, censored = e.scan("body", body)
				return nil
			})
		}
		for i, name := range stickers {
			i, name := i, name
			g.Go(func() error {
				stickerLanguage[i], _ = e.scan("sticker", name)
				return nil
			})
		}
		for i, embed := range embeds {
			i, embed := i, embed
			g.Go(func() error {
				embedLanguage[i] = e.scanEmbed(embed)
				return nil
			})
		}
		if len(attachments) > 0 {
			g.Go(func() error {
				e.scanAttachments(ctx, attachments, attachmentLanguage)
				return nil
			})
		}
	}

	if e.checksLinks(info, author) {
		var texts []string
		if known {
			texts = append(texts, censor.StripMarkdown(body))
		}
		texts = append(texts, stickers...)
		g.Go(func() error {
			botLinks = botLinkCounter(texts)
			return nil
		})
		g.Go(func() error {
			invites = e.checkInvites(ctx, report.GuildID, texts)
			return nil
		})
	}

	if known {
		report.Emoji = emojiCounter(body)
	}
	_ = g.Wait()

	report.Language.add(bodyLanguage)
	for _, counter := range stickerLanguage {
		report.Language.add(counter)
	}
	for _, counter := range attachmentLanguage {
		report.Language.add(counter)
	}
	for _, counter := range embedLanguage {
		report.Embeds.add(counter)
	}
	report.Invites = invites
	report.BotLinks = botLinks
	report.Censored = censored

	recordViolations(report)
	return report
}

func (e *Evaluator) inspect(ctx context.Context, channelID string) ChannelInfo {
	if e.channels == nil {
		return ChannelInfo{BaseID: channelID}
	}
	info, err := e.channels.Inspect(ctx, channelID)
	if err != nil {
		// An unknown channel is treated like one nobody can see.
		e.logger.Warn("channel inspect failed", zap.String("channel_id", channelID), zap.Error(err))
		return ChannelInfo{Exempt: true}
	}
	return info
}

func (e *Evaluator) checksLinks(info ChannelInfo, author Author) bool {
	if author.Bot || info.BaseID == "" {
		return false
	}
	_, exempt := e.linkExempt[info.BaseID]
	return !exempt
}

func (e *Evaluator) scan(source, text string) (Counter, string) {
	if strings.TrimSpace(text) == "" {
		return Counter{}, ""
	}
	metrics.Scans.WithLabelValues(source).Inc()
	res, ok := e.censor.Scan(text)
	if !ok {
		return Counter{}, ""
	}
	return Counter{Triggered: true, Strikes: res.Strikes, Evidence: res.Words()}, res.Censored
}

func (e *Evaluator) scanEmbed(embed Embed) Counter {
	var total Counter
	for _, text := range embed.Texts() {
		counter, _ := e.scan("embed", text)
		total.add(counter)
	}
	return total
}

func (e *Evaluator) scanAttachments(ctx context.Context, attachments []Attachment, out []Counter) {
	var g errgroup.Group
	g.SetLimit(e.maxFetches)
	for i, attachment := range attachments {
		i, attachment := i, attachment
		g.Go(func() error {
			out[i] = e.scanAttachment(ctx, attachment)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Evaluator) scanAttachment(ctx context.Context, attachment Attachment) Counter {
	texts := []string{attachment.Name, attachment.Description}
	if e.fetcher != nil && attachment.URL != "" && TextLike(attachment.ContentType) {
		body, err := e.fetcher.FetchText(ctx, attachment.URL)
		if err != nil {
			e.logger.Debug("attachment fetch failed", zap.String("url", attachment.URL), zap.Error(err))
		} else {
			texts = append(texts, body)
		}
	}

	var total Counter
	for _, text := range texts {
		counter, _ := e.scan("attachment", text)
		total.add(counter)
	}
	return total
}

// checkInvites resolves every invite code concurrently, each under its own
// timeout. Only codes pointing at another guild count.
func (e *Evaluator) checkInvites(ctx context.Context, guildID string, texts []string) Counter {
	var codes []string
	for _, text := range texts {
		codes = append(codes, InviteCodes(text)...)
	}
	if len(codes) == 0 || e.invites == nil {
		return Counter{}
	}

	foreign := make([]bool, len(codes))
	var g errgroup.Group
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, e.inviteTimeout)
			defer cancel()
			target, err := e.invites.ResolveInvite(lookupCtx, code)
			if err != nil {
				metrics.InviteLookups.WithLabelValues("error").Inc()
				e.logger.Debug("invite lookup failed", zap.String("code", code), zap.Error(err))
				return nil
			}
			if target == "" || target == guildID {
				metrics.InviteLookups.WithLabelValues("local").Inc()
				return nil
			}
			metrics.InviteLookups.WithLabelValues("foreign").Inc()
			foreign[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var counter Counter
	for i, code := range codes {
		if !foreign[i] {
			continue
		}
		counter.Triggered = true
		counter.Strikes++
		counter.Evidence = append(counter.Evidence, code)
	}
	return counter
}

func botLinkCounter(texts []string) Counter {
	var counter Counter
	for _, text := range texts {
		for _, link := range BotLinks(text) {
			counter.Triggered = true
			counter.Strikes++
			counter.Evidence = append(counter.Evidence, link)
		}
	}
	return counter
}

func emojiCounter(body string) Counter {
	emoji := AnimatedEmoji(body)
	weight, triggered := EmojiWeight(len(emoji))
	if !triggered {
		return Counter{}
	}
	return Counter{Triggered: true, Strikes: weight, Evidence: emoji}
}

func recordViolations(report Report) {
	for category, counter := range map[Category]Counter{
		CategoryLanguage: report.LanguageStrikes(),
		CategoryInvites:  report.Invites,
		CategoryBotLinks: report.BotLinks,
		CategoryEmoji:    report.Emoji,
	} {
		if counter.Triggered {
			metrics.Violations.WithLabelValues(string(category)).Inc()
		}
	}
}
