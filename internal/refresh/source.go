package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
)

// Fetcher retrieves the current raw export rows for one record kind.
type Fetcher interface {
	Fetch(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error)
}

// HTTPSource pulls tool exports from a remote feed, wrapped in a rate
// limiter, retries with backoff, and a circuit breaker so a flapping
// feed cannot hammer itself via our refresh loop.
type HTTPSource struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
	m       *metrics.Metrics
}

func NewHTTPSource(baseURL string, timeout time.Duration, limit float64, burst int, m *metrics.Metrics, logger *zap.Logger) *HTTPSource {
	s := &HTTPSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		logger:  logger.Named("source"),
		m:       m,
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "export-feed",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 4
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				s.m.RefreshBreaker.Set(1)
			} else {
				s.m.RefreshBreaker.Set(0)
			}
		},
	})

	return s
}

// Fetch downloads and decodes one export. The decoded rows keep their
// original key names; normalization happens downstream.
func (s *HTTPSource) Fetch(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		var rows []domain.RawRecord

		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
		)
		retryErr := r.Do(func() error {
			var callErr error
			rows, callErr = s.fetchOnce(ctx, kind)
			return callErr
		})

		return rows, retryErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s export: %w", kind, err)
	}

	return result.([]domain.RawRecord), nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	url := fmt.Sprintf("%s/exports/%s", s.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("feed returned %d", resp.StatusCode)
	}

	var rows []domain.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	return rows, nil
}
