// Package webhook posts reports to a Mattermost-compatible incoming webhook.
package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JakeFAU/wanikani-report/internal/profile"
)

const (
	// DefaultUsername is the sender name shown in the channel.
	DefaultUsername = "Crabigator"
	// DefaultIconURL is the sender avatar.
	DefaultIconURL = "https://global.discourse-cdn.com/wanikanicommunity/original/4X/6/2/a/62a8b0f4c59ff2c5b6651ffcf43531480b3e5297.png"
	// DefaultTimeout bounds the webhook request.
	DefaultTimeout = 10 * time.Second
)

// Config controls the webhook message and transport.
type Config struct {
	URL      string
	Username string
	IconURL  string
	Timeout  time.Duration
}

// Payload is the JSON body sent to the webhook.
type Payload struct {
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
	Text     string `json:"text"`
}

// Publisher implements profile.Publisher over HTTP.
type Publisher struct {
	cfg    Config
	client *resty.Client
}

// New creates a Publisher. The resty client is created when nil.
func New(cfg Config, client *resty.Client) *Publisher {
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.IconURL == "" {
		cfg.IconURL = DefaultIconURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = resty.New()
	}
	client.SetTimeout(cfg.Timeout)
	return &Publisher{cfg: cfg, client: client}
}

// Publish sends message in a single POST. Non-2xx responses and transport
// failures are returned as *profile.DeliveryError; there is no retry.
func (p *Publisher) Publish(ctx context.Context, message string) error {
	if p.cfg.URL == "" {
		return &profile.DeliveryError{Err: errors.New("webhook url is not configured")}
	}
	res, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(Payload{
			Username: p.cfg.Username,
			IconURL:  p.cfg.IconURL,
			Text:     message,
		}).
		Post(p.cfg.URL)
	if err != nil {
		return &profile.DeliveryError{Err: err}
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		return &profile.DeliveryError{StatusCode: res.StatusCode()}
	}
	return nil
}
