package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/wanikani-report/internal/metrics"
	"github.com/JakeFAU/wanikani-report/internal/profile"
	"github.com/JakeFAU/wanikani-report/internal/publisher/memory"
)

const guruOnlyDoc = `<html><body>
<div class="public-profile__username">tanuki</div>
<div class="public-profile__level-info-level">3</div>
<div class="public-profile__level-info-stage">Pleasant</div>
<span class="public-profile__serving-since-date"><time datetime="2024-01-02T03:04:05Z">Jan 2</time></span>
<ul><li class="srs-progress__stage">
  <div class="srs-progress__stage-title">Guru</div>
  <div class="srs-progress__stage-total">7</div>
  <div class="srs-progress__subject-type"><div class="srs-progress__subject-type-title">Kanji</div><div class="srs-progress__subject-type-count">3</div></div>
  <div class="srs-progress__subject-type"><div class="srs-progress__subject-type-title">Vocabulary</div><div class="srs-progress__subject-type-count">4</div></div>
</li></ul>
<div class="public-profile__kanji-progress"><div class="progress-chart__progress-bar-label-count">120</div><div class="progress-chart__bar-axis-max">500</div></div>
<div class="public-profile__vocabulary-progress"><div class="progress-chart__progress-bar-label-count">10</div><div class="progress-chart__bar-axis-max">900</div></div>
</body></html>`

// MockFetcher mocks the profile.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

// Fetch satisfies the profile.Fetcher interface for the mock.
func (m *MockFetcher) Fetch(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(5 * time.Millisecond)
	return c.now
}

type fakeIDs struct{ err error }

func (f fakeIDs) NewID() (string, error) { return "run-1", f.err }

type fakeHasher struct{}

func (fakeHasher) Hash([]byte) (string, error) { return "digest-1", nil }

func newRunner(fetcher profile.Fetcher, pub profile.Publisher, rec *metrics.Recorder, cfg Config) *Runner {
	if cfg.Username == "" {
		cfg.Username = "tanuki"
	}
	return New(fetcher, pub, fakeHasher{}, &fakeClock{now: time.Unix(1700000000, 0)}, fakeIDs{}, rec, cfg, zap.NewNop())
}

func TestRunner_EndToEnd(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "tanuki").Return(guruOnlyDoc, nil).Once()
	pub := memory.New()
	rec := metrics.NewRecorder()

	res, err := newRunner(fetcher, pub, rec, Config{}).Run(context.Background())
	require.NoError(t, err)
	fetcher.AssertExpectations(t)

	require.Equal(t, "run-1", res.RunID)
	require.Equal(t, "digest-1", res.Digest)
	require.Equal(t, 3, res.Stats.Progress.Kanji.Known)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, res.Message, msgs[0])
	lines := strings.Split(msgs[0], "\n")
	require.Equal(t, "#### WaniKani Report for tanuki (Pleasant 3)", lines[0])
	// Known comes from the stage breakdown, not the chart label.
	require.Contains(t, msgs[0], "Kanji Progression: 3/500 (120)")
	require.Contains(t, msgs[0], "Vocabulary Progression: 4/900 (10)")
	require.Contains(t, msgs[0], "Guru :hatching_chick:")

	n, err := testutil.GatherAndCount(rec.Registry(), "wkreport_runs_total", "wkreport_known_subjects")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestRunner_RetrievalErrorSkipsPublish(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "ghost").
		Return("", &profile.RetrievalError{URL: "https://www.wanikani.com/users/ghost", StatusCode: http.StatusNotFound}).Once()
	pub := memory.New()

	_, err := newRunner(fetcher, pub, nil, Config{Username: "ghost"}).Run(context.Background())
	var retrievalErr *profile.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	require.Equal(t, http.StatusNotFound, retrievalErr.StatusCode)
	require.Empty(t, pub.Messages())
}

func TestRunner_ParseErrorSkipsPublish(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "tanuki").Return("<html><body>private</body></html>", nil)
	pub := memory.New()

	_, err := newRunner(fetcher, pub, nil, Config{}).Run(context.Background())
	var parseErr *profile.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "username", parseErr.Anchor)
	require.Contains(t, err.Error(), "digest-1")
	require.Empty(t, pub.Messages())
}

func TestRunner_DeliveryError(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "tanuki").Return(guruOnlyDoc, nil)
	pub := memory.New()
	pub.FailWith(&profile.DeliveryError{StatusCode: http.StatusBadGateway})
	rec := metrics.NewRecorder()

	_, err := newRunner(fetcher, pub, rec, Config{}).Run(context.Background())
	var deliveryErr *profile.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	require.Equal(t, http.StatusBadGateway, deliveryErr.StatusCode)
}

func TestRunner_IDFailure(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	r := New(fetcher, memory.New(), fakeHasher{}, &fakeClock{}, fakeIDs{err: errors.New("entropy")}, nil, Config{Username: "tanuki"}, nil)
	_, err := r.Run(context.Background())
	require.ErrorContains(t, err, "entropy")
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRunner_PushesMetrics(t *testing.T) {
	t.Parallel()

	var pushes atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "tanuki").Return(guruOnlyDoc, nil)

	cfg := Config{PushgatewayURL: gateway.URL, MetricsJob: "wkreport"}
	_, err := newRunner(fetcher, memory.New(), metrics.NewRecorder(), cfg).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), pushes.Load())
}

func TestRunner_PushFailureDoesNotFailRun(t *testing.T) {
	t.Parallel()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer gateway.Close()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, "tanuki").Return(guruOnlyDoc, nil)
	pub := memory.New()

	cfg := Config{PushgatewayURL: gateway.URL, MetricsJob: "wkreport"}
	_, err := newRunner(fetcher, pub, metrics.NewRecorder(), cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.Messages(), 1)
}
