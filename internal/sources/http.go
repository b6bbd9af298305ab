package sources

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// client is the per-connector HTTP client. The limiter is never shared
// between connectors.
type client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger
}

func newClient(opts Options, defaultThrottle time.Duration, logger *zap.Logger) *client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = defaultThrottle
	}

	return &client{
		http:      httpClient,
		limiter:   newLimiter(throttle),
		userAgent: userAgent,
		logger:    logger,
	}
}

// newLimiter allows one request per interval. The first request is not delayed.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// get waits for the throttle, performs a GET request and returns the body of a 2xx response.
func (c *client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("make request", zap.String("url", url))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, Status: resp.Status, Code: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}
