package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
)

type fakeFetcher struct {
	rows []domain.RawRecord
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ domain.RecordKind) ([]domain.RawRecord, error) {
	return f.rows, f.err
}

type captureSink struct {
	published [][]domain.RawRecord
	err       error
}

func (c *captureSink) Publish(_ context.Context, _ domain.RecordKind, rows []domain.RawRecord) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, rows)
	return nil
}

func newTestScheduler(f Fetcher, s Sink) *Scheduler {
	return NewScheduler(f, s, []domain.RecordKind{domain.KindDevice}, time.Minute, metrics.New(nil), zap.NewNop())
}

func TestRunOncePublishesNewSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{rows: []domain.RawRecord{{"Username": "alice"}}}
	sink := &captureSink{}
	s := newTestScheduler(fetcher, sink)

	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)
}

// Identical content on the next cycle is a silent no-op.
func TestRunOnceSkipsUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{rows: []domain.RawRecord{{"Username": "alice"}}}
	sink := &captureSink{}
	s := newTestScheduler(fetcher, sink)

	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)

	fetcher.rows = []domain.RawRecord{{"Username": "bob"}}
	s.RunOnce(context.Background())
	require.Len(t, sink.published, 2)
}

// A fetch that resolves after a newer generation was applied must be
// discarded, not applied last-write-wins.
func TestStaleGenerationDiscarded(t *testing.T) {
	sink := &captureSink{}
	s := newTestScheduler(&fakeFetcher{}, sink)

	oldGen := s.nextGeneration()
	newGen := s.nextGeneration()

	// Newer cycle lands first.
	s.apply(context.Background(), domain.KindDevice, newGen, []domain.RawRecord{{"Username": "fresh"}})
	require.Len(t, sink.published, 1)

	// The older, slower response arrives afterwards with different data.
	s.apply(context.Background(), domain.KindDevice, oldGen, []domain.RawRecord{{"Username": "stale"}})
	require.Len(t, sink.published, 1, "stale snapshot must not be published")
	assert.Equal(t, "fresh", sink.published[0][0]["Username"])
}

func TestFetchErrorLeavesStateIntact(t *testing.T) {
	fetcher := &fakeFetcher{rows: []domain.RawRecord{{"Username": "alice"}}}
	sink := &captureSink{}
	s := newTestScheduler(fetcher, sink)

	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)

	fetcher.err = errors.New("feed down")
	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)

	// Feed recovers with the same data: still no republish.
	fetcher.err = nil
	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)
}

func TestPublishErrorDoesNotAdvanceDigest(t *testing.T) {
	fetcher := &fakeFetcher{rows: []domain.RawRecord{{"Username": "alice"}}}
	sink := &captureSink{err: errors.New("redis down")}
	s := newTestScheduler(fetcher, sink)

	s.RunOnce(context.Background())
	require.Empty(t, sink.published)

	// A failed publish does not count as applied, so the same content
	// goes through once the sink recovers.
	sink.err = nil
	s.RunOnce(context.Background())
	require.Len(t, sink.published, 1)
}

func TestStartStop(t *testing.T) {
	fetcher := &fakeFetcher{rows: []domain.RawRecord{{"k": "v"}}}
	s := NewScheduler(fetcher, &captureSink{}, []domain.RecordKind{domain.KindDevice}, 10*time.Millisecond, metrics.New(nil), zap.NewNop())

	s.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	s.Stop()
}
