package geo

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DownloadOptions configures boundary downloads.
type DownloadOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	RatePerSec  float64
}

// Downloader fetches boundary archives over HTTP with retry and rate limiting.
type Downloader struct {
	client  *http.Client
	opts    DownloadOptions
	limiter *rate.Limiter
}

// NewDownloader returns a downloader with defaults filled in.
func NewDownloader(opts DownloadOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "regioniq/1.0"
	}
	return &Downloader{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL into destDir and returns the local path. The file
// name is the last element of the URL path.
func (d *Downloader) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "geo: parse url %s", rawURL)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || filepath.Ext(name) == "" {
		name = "boundaries.zip"
	}

	resp, err := d.doWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geo: create download dir")
	}
	dest := filepath.Join(destDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrapf(err, "geo: create %s", dest)
	}
	defer f.Close() //nolint:errcheck

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", eris.Wrapf(err, "geo: write %s", dest)
	}
	zap.L().Info("downloaded boundary file",
		zap.String("component", "geo"),
		zap.String("url", rawURL),
		zap.Int64("bytes", n),
	)
	return dest, nil
}

func (d *Downloader) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := range d.opts.MaxRetries {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geo: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geo: create request")
		}
		req.Header.Set("User-Agent", d.opts.UserAgent)

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("geo: download failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("geo: retryable status",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("geo: unexpected status %d from %s", resp.StatusCode, rawURL)
		}
		return resp, nil
	}
	return nil, eris.Wrap(lastErr, "geo: all retries exhausted")
}

func (d *Downloader) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	wait := time.Duration(float64(d.opts.BaseBackoff) * math.Pow(2, float64(attempt)))
	if wait > maxBackoff {
		wait = maxBackoff
	}
	if half := int64(wait) / 2; half > 0 {
		wait += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
