package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lukemcguire/urlpulse/result"
)

// Fetcher performs one check of an already normalized URL.
// Implementations never return an Invalid outcome and never panic on
// network failure; every failure is reported as a result.NetworkError.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL, raw string) result.Outcome
}

// HTTPFetcher checks a URL with a single GET, reading only the status line
// and headers. The body is closed without being read.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher whose transport enforces the
// connect and read timeouts from cfg.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	cfg = cfg.withDefaults()

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ForceAttemptHTTP2:     true,
		// Each job owns its connection; nothing is pooled between targets.
		DisableKeepAlives: true,
		// Keep Content-Length as the server sent it.
		DisableCompression: true,
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects: %w", len(via), result.ErrTooManyRedirects)
			}
			return nil
		},
	}

	return &HTTPFetcher{client: client, userAgent: cfg.UserAgent}
}

// Fetch issues GET target and reports the final response of the redirect chain.
func (f *HTTPFetcher) Fetch(ctx context.Context, target *url.URL, raw string) result.Outcome {
	start := time.Now()
	log := zerolog.Ctx(ctx).With().Str("url", target.String()).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return result.NewNetworkError(raw, result.CategoryUnknown, err.Error(), time.Since(start))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		category := result.ClassifyError(err)
		if errors.Is(err, context.Canceled) {
			category = result.CategoryInterrupted
		}
		log.Debug().Err(err).Str("category", string(category)).Dur("elapsed", elapsed).Msg("fetch failed")
		return result.NewNetworkError(raw, category, underlyingMessage(err), elapsed)
	}
	// Headers are all we need; closing without draining aborts the body.
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("close response body")
		}
	}()

	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("fetch complete")

	return result.NewSuccess(raw, resp.StatusCode, reasonPhrase(resp), elapsed, headerContentLength(resp.Header))
}

// reasonPhrase extracts the text after the status code in the status line.
func reasonPhrase(resp *http.Response) string {
	phrase := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	return strings.TrimSpace(phrase)
}

// headerContentLength returns the Content-Length header value, or -1 when it
// is missing or malformed.
func headerContentLength(h http.Header) int64 {
	v := strings.TrimSpace(h.Get("Content-Length"))
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// underlyingMessage strips the method and URL that *url.Error prepends.
func underlyingMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
