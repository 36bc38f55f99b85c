package ga

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// CollectEndpoint is the vendor's hit collection URL.
const CollectEndpoint = "https://ssl.google-analytics.com/collect"

const defaultRetries = 2

// Sender posts one form-encoded hit and reports the resulting HTTP status.
type Sender interface {
	Send(ctx context.Context, form url.Values) (int, error)
}

// HTTPSender delivers hits with bounded exponential-backoff retry on
// transient failures. Server errors and transport errors retry; any other
// non-2xx response fails immediately.
type HTTPSender struct {
	endpoint string
	retries  uint64
	http     *http.Client
}

// NewHTTPSender builds a sender. Empty endpoint selects the production
// collection URL; a negative retry count selects the default of 2.
func NewHTTPSender(endpoint string, retries int) *HTTPSender {
	if endpoint == "" {
		endpoint = CollectEndpoint
	}
	if retries < 0 {
		retries = defaultRetries
	}
	return &HTTPSender{
		endpoint: endpoint,
		retries:  uint64(retries),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the form body, retrying up to the configured bound.
func (c *HTTPSender) Send(ctx context.Context, form url.Values) (int, error) {
	var status int
	body := form.Encode()

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(req) // #nosec G704 -- URL is the configured collection endpoint, not user input
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("collect endpoint returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return backoff.Permanent(fmt.Errorf("collect endpoint rejected hit (status %d)", resp.StatusCode))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return status, err
	}
	return status, nil
}
