// Package metrics exposes Prometheus collectors for the automod pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scans counts censor scans by source: body, embed, sticker, attachment, nickname.
	Scans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_automod_scans_total",
		Help: "Texts scanned by the censor",
	}, []string{"source"})

	Violations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_automod_violations_total",
		Help: "Triggered violation categories",
	}, []string{"category"})

	// InviteLookups counts invite resolutions by result: foreign, local, error.
	InviteLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_invite_lookups_total",
		Help: "Invite code resolutions",
	}, []string{"result"})

	InviteCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_invite_cache_total",
		Help: "Invite cache reads by result: hit, miss, error",
	}, []string{"result"})

	Warnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_warnings_total",
		Help: "Warnings issued by category",
	}, []string{"category"})

	Timeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_timeouts_total",
		Help: "Members timed out for reaching the strike threshold",
	})

	PublishedReports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_published_reports_total",
		Help: "Violation reports published to NATS by result",
	}, []string{"result"})

	AttachmentFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_attachment_fetches_total",
		Help: "Attachment bodies fetched for scanning",
	}, []string{"result"})

	EffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_effect_failures_total",
		Help: "Enforcement effects that returned an error",
	}, []string{"kind"})

	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_commands_total",
		Help: "Slash commands handled",
	}, []string{"command"})

	EvaluationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "warden_evaluation_seconds",
		Help:    "Time spent evaluating one message",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)

func init() {
	prometheus.MustRegister(
		Scans,
		Violations,
		InviteLookups,
		InviteCache,
		Warnings,
		Timeouts,
		PublishedReports,
		AttachmentFetches,
		EffectFailures,
		Commands,
		EvaluationSeconds,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
