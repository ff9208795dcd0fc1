// Package stdout writes reports to a terminal or pipe instead of a webhook.
package stdout

import (
	"context"
	"fmt"
	"io"

	"github.com/JakeFAU/wanikani-report/internal/profile"
)

// Publisher writes each report to an io.Writer followed by a newline.
type Publisher struct {
	w io.Writer
}

// New returns a Publisher writing to w.
func New(w io.Writer) *Publisher {
	return &Publisher{w: w}
}

// Publish writes message. Write failures are reported as *profile.DeliveryError.
func (p *Publisher) Publish(_ context.Context, message string) error {
	if _, err := fmt.Fprintln(p.w, message); err != nil {
		return &profile.DeliveryError{Err: err}
	}
	return nil
}
