// Package messaging publishes automod violation reports over NATS so an
// external moderation dashboard can follow them.
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"warden-automod/internal/automod"
	"warden-automod/internal/metrics"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectViolation is suffixed with .<guild_id>.
const SubjectViolation = "automod.violation"

type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "warden",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// ViolationEvent is the payload published for every violating message.
type ViolationEvent struct {
	Report    automod.Report `json:"report"`
	Effects   []string       `json:"effects"`
	AuditOnly bool           `json:"audit_only"`
	At        time.Time      `json:"at"`
}

type NATSClient struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSClient(config NATSConfig, logger *zap.Logger) (*NATSClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info("nats connected", zap.String("url", nc.ConnectedUrl()))
	return &NATSClient{conn: nc, logger: logger}, nil
}

func ViolationSubject(guildID string) string {
	if guildID == "" {
		guildID = "dm"
	}
	return SubjectViolation + "." + guildID
}

func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

func (c *NATSClient) PublishViolation(event ViolationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.PublishedReports.WithLabelValues("error").Inc()
		return fmt.Errorf("encode violation: %w", err)
	}
	if err := c.Publish(ViolationSubject(event.Report.GuildID), data); err != nil {
		metrics.PublishedReports.WithLabelValues("error").Inc()
		return fmt.Errorf("publish violation: %w", err)
	}
	metrics.PublishedReports.WithLabelValues("ok").Inc()
	return nil
}

func (c *NATSClient) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", zap.Error(err))
	}
}
