package isup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-skud/internal/event"

	"go.uber.org/zap"
)

// HTTPForwarder posts payloads to the ingestion endpoint of a server
// running elsewhere. It is the Sink of the standalone listener binary.
type HTTPForwarder struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewHTTPForwarder(url string, timeout time.Duration, logger ...*zap.Logger) *HTTPForwarder {
	l := zap.L().Named("isup.forwarder")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("isup.forwarder")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPForwarder{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: l,
	}
}

// Submit sends raw.Body as text/plain. The terminal address travels in
// X-Forwarded-For so the server classifies by the terminal, not by us.
func (f *HTTPForwarder) Submit(ctx context.Context, raw event.RawEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(raw.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if raw.SourceAddr != "" {
		req.Header.Set("X-Forwarded-For", raw.SourceAddr)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward event: %w", err)
	}
	defer resp.Body.Close()

	status, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("forward event: server answered %d", resp.StatusCode)
	}

	f.logger.Debug("event forwarded",
		zap.String("source_addr", raw.SourceAddr),
		zap.String("status", strings.TrimSpace(string(status))),
	)
	return nil
}
