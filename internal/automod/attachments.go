package automod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"warden-automod/internal/metrics"
	"warden-automod/internal/utils"
)

var ErrHostNotAllowed = errors.New("attachment host not allowed")

var textContentTypes = map[string]struct{}{
	"application/json":    {},
	"application/xml":     {},
	"application/rss+xml": {},
}

// TextLike reports whether an attachment's declared content type is worth
// downloading for a scan.
func TextLike(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	_, ok := textContentTypes[mediaType]
	return ok
}

// HTTPFetcher downloads attachment bodies from an allowlist of hosts,
// reading at most maxBytes.
type HTTPFetcher struct {
	client   *http.Client
	hosts    map[string]struct{}
	maxBytes int64
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, hosts []string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		hosts:    utils.HostSet(hosts),
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	host, err := utils.HostOf(rawURL)
	if err != nil {
		metrics.AttachmentFetches.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("parse attachment url: %w", err)
	}
	if !utils.HostAllowed(host, f.hosts) {
		metrics.AttachmentFetches.WithLabelValues("blocked").Inc()
		return "", fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetch attachment: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		metrics.AttachmentFetches.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.AttachmentFetches.WithLabelValues("ok").Inc()
	return string(body), nil
}
