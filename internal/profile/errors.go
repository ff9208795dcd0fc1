package profile

import "fmt"

// RetrievalError reports a failed fetch of the profile page.
// StatusCode is zero when the request never produced a response.
type RetrievalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ParseError reports a structural anchor that was absent or malformed.
type ParseError struct {
	Anchor string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse profile: " + e.Anchor
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// AggregationError reports a stage record without a required subject category.
type AggregationError struct {
	Stage    string
	Category string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate known subjects: stage %q has no %s entry", e.Stage, e.Category)
}

// DeliveryError reports a failed webhook post.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("deliver report: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("deliver report: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
