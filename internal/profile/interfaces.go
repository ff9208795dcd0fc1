package profile

import (
	"context"
	"time"
)

// Fetcher retrieves the raw profile document for an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (string, error)
}

// Publisher delivers a rendered report.
type Publisher interface {
	Publish(ctx context.Context, message string) error
}

// Hasher computes digests used to correlate logs with fetched documents.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
