package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpSource fetches artifacts relative to a base URL
type httpSource struct {
	base     *url.URL
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// HTTPOption customizes an HTTP artifact source
type HTTPOption func(*httpSource)

// WithRetryBackoff sets the base delay between attempts; attempt n waits n*d
func WithRetryBackoff(d time.Duration) HTTPOption {
	return func(s *httpSource) { s.backoff = d }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *httpSource) { s.client = c }
}

// NewHTTPSource creates an artifact source backed by plain HTTP(S) GETs
func NewHTTPSource(baseURL string, opts ...HTTPOption) (ArtifactSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("artifact base URL must be http or https, got %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	s := &httpSource{
		base: u,
		client: &http.Client{
			Transport: transport,
			Timeout:   5 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *httpSource) Location() string {
	return s.base.String()
}

// Fetch downloads name, retrying transport failures and 5xx responses.
// 4xx responses are final; 404 maps to ErrArtifactNotFound.
func (s *httpSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact name %q: %w", name, err)
	}
	target := s.base.ResolveReference(ref).String()

	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}

		data, retry, err := s.get(ctx, target)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", name, s.attempts, lastErr)
}

// get performs one attempt and reports whether a failure is worth retrying
func (s *httpSource) get(ctx context.Context, target string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", "Go-ELA-Inspector/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrArtifactNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return nil, false, fmt.Errorf("artifact exceeds %d bytes", maxArtifactBytes)
	}
	return data, false, nil
}
