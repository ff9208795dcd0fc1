// Package collyfetcher retrieves profile pages using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/wanikani-report/internal/profile"
)

const (
	// DefaultBaseURL is the host serving public profiles.
	DefaultBaseURL = "https://www.wanikani.com"
	// DefaultTimeout bounds the single profile request.
	DefaultTimeout = 10 * time.Second
)

// Config controls collector behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements profile.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type fetchResult struct {
	statusCode int
	body       []byte
	err        error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())

	return &Fetcher{cfg: cfg, baseCollector: c}
}

// ProfileURL returns the public profile URL for identifier.
func (f *Fetcher) ProfileURL(identifier string) string {
	return strings.TrimRight(f.cfg.BaseURL, "/") + "/users/" + url.PathEscape(identifier)
}

// Fetch performs a single GET of the profile page and returns its body.
// Every failure is reported as a *profile.RetrievalError.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (string, error) {
	target := f.ProfileURL(identifier)
	if strings.TrimSpace(identifier) == "" {
		return "", &profile.RetrievalError{URL: target, Err: errors.New("empty profile identifier")}
	}

	var result fetchResult
	collector := f.buildCollector()
	f.configureCollectorHooks(collector, &result)

	if err := f.runCollector(ctx, collector, target, &result); err != nil {
		return "", &profile.RetrievalError{URL: target, Err: err}
	}
	if result.statusCode < http.StatusOK || result.statusCode >= http.StatusMultipleChoices {
		return "", &profile.RetrievalError{URL: target, StatusCode: result.statusCode}
	}
	return string(result.body), nil
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	// Status handling happens in Fetch so error pages still reach OnResponse.
	collector.ParseHTTPErrorResponse = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *fetchResult) {
	hooks.OnResponse(func(r *colly.Response) {
		result.statusCode = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.statusCode = r.StatusCode
		}
		result.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, target string, result *fetchResult) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if result.err != nil {
			return fmt.Errorf("colly response failed: %w", result.err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
