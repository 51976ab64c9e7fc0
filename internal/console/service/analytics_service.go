package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
	"github.com/dmko-sec/secdash/internal/pipeline"
)

// RecordSource yields the raw rows of the newest dataset per kind.
type RecordSource interface {
	GetRawRecords(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error)
}

// SnapshotCache is the optional feed-snapshot fallback used when no
// dataset of a kind has been uploaded yet.
type SnapshotCache interface {
	LoadSnapshot(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error)
}

// Query is one table view request: filters, sort, page.
type Query struct {
	Filter domain.FilterState `json:"filter"`
	Sort   domain.SortState   `json:"sort"`
	Page   domain.PageState   `json:"page"`
}

// TablePage is the display-ready slice of a filtered, sorted table.
type TablePage[T any] struct {
	Items         []T `json:"items"`
	Page          int `json:"page"` // clamped, may differ from the request
	TotalPages    int `json:"total_pages"`
	TotalFiltered int `json:"total_filtered"`
	TotalRecords  int `json:"total_records"`
}

// AnalyticsService runs the record pipeline over the current snapshot.
// All heavy lifting is in pure pipeline functions; this layer only
// loads rows, times the pass and clamps pagination.
type AnalyticsService struct {
	repo   RecordSource
	cache  SnapshotCache
	m      *metrics.Metrics
	logger *zap.Logger
}

func NewAnalyticsService(repo RecordSource, cache SnapshotCache, m *metrics.Metrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		cache:  cache,
		m:      m,
		logger: logger.Named("analytics"),
	}
}

// loadRaw prefers uploaded datasets and falls back to the cached feed
// snapshot when nothing was uploaded for the kind.
func (s *AnalyticsService) loadRaw(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	raws, err := s.repo.GetRawRecords(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("analytics: load %s records: %w", kind, err)
	}
	if len(raws) > 0 || s.cache == nil {
		return raws, nil
	}

	cached, err := s.cache.LoadSnapshot(ctx, kind)
	if err != nil {
		// The cache is an enhancement; degraded mode is empty tables.
		s.logger.Warn("snapshot cache unavailable",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return raws, nil
	}
	return cached, nil
}

// runQuery is the shared normalize → filter → sort → paginate pass.
func runQuery[T pipeline.Record](
	s *AnalyticsService,
	kind domain.RecordKind,
	raws []domain.RawRecord,
	normalize func([]domain.RawRecord) []T,
	sc pipeline.Schema,
	q Query,
) TablePage[T] {
	started := time.Now()

	records := normalize(raws)
	filtered := pipeline.Filter(records, q.Filter, sc)
	sorted := pipeline.Sort(filtered, q.Sort, sc)

	size := q.Page.ItemsPerPage
	if !domain.ValidPageSize(size) {
		size = domain.PageSizes[0]
	}
	page := pipeline.ClampPage(q.Page.CurrentPage, pipeline.TotalPages(len(sorted), size))
	p := pipeline.Paginate(sorted, page, size)

	s.m.PipelineDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())

	return TablePage[T]{
		Items:         p.Items,
		Page:          page,
		TotalPages:    p.TotalPages,
		TotalFiltered: len(filtered),
		TotalRecords:  len(records),
	}
}

func (s *AnalyticsService) QueryDevices(ctx context.Context, q Query) (TablePage[domain.DeviceRecord], error) {
	raws, err := s.loadRaw(ctx, domain.KindDevice)
	if err != nil {
		return TablePage[domain.DeviceRecord]{}, err
	}
	return runQuery(s, domain.KindDevice, raws, pipeline.NormalizeDevices, pipeline.DeviceSchema, q), nil
}

func (s *AnalyticsService) QueryViolations(ctx context.Context, q Query) (TablePage[domain.ViolationRecord], error) {
	raws, err := s.loadRaw(ctx, domain.KindViolation)
	if err != nil {
		return TablePage[domain.ViolationRecord]{}, err
	}
	return runQuery(s, domain.KindViolation, raws, pipeline.NormalizeViolations, pipeline.ViolationSchema, q), nil
}

func (s *AnalyticsService) QueryIncidents(ctx context.Context, q Query) (TablePage[domain.IncidentRecord], error) {
	raws, err := s.loadRaw(ctx, domain.KindIncident)
	if err != nil {
		return TablePage[domain.IncidentRecord]{}, err
	}
	return runQuery(s, domain.KindIncident, raws, pipeline.NormalizeIncidents, pipeline.IncidentSchema, q), nil
}

func (s *AnalyticsService) QueryWipes(ctx context.Context, q Query) (TablePage[domain.WipeEvent], error) {
	raws, err := s.loadRaw(ctx, domain.KindWipe)
	if err != nil {
		return TablePage[domain.WipeEvent]{}, err
	}
	return runQuery(s, domain.KindWipe, raws, pipeline.NormalizeWipes, pipeline.WipeSchema, q), nil
}

// FleetMetrics recomputes the device KPI block over the date-filtered
// subset, so headline numbers track the active range selection.
func (s *AnalyticsService) FleetMetrics(ctx context.Context, filter domain.FilterState) (domain.AggregateSummary, error) {
	raws, err := s.loadRaw(ctx, domain.KindDevice)
	if err != nil {
		return domain.AggregateSummary{}, err
	}
	devices := pipeline.Filter(pipeline.NormalizeDevices(raws), filter, pipeline.DeviceSchema)
	return pipeline.FleetAggregate(devices), nil
}

// Dashboard assembles the composite KPI payload from all four kinds.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*domain.SecurityDashboard, error) {
	devRaw, err := s.loadRaw(ctx, domain.KindDevice)
	if err != nil {
		return nil, err
	}
	vioRaw, err := s.loadRaw(ctx, domain.KindViolation)
	if err != nil {
		return nil, err
	}
	incRaw, err := s.loadRaw(ctx, domain.KindIncident)
	if err != nil {
		return nil, err
	}
	wipeRaw, err := s.loadRaw(ctx, domain.KindWipe)
	if err != nil {
		return nil, err
	}

	d := pipeline.BuildDashboard(
		pipeline.NormalizeDevices(devRaw),
		pipeline.NormalizeViolations(vioRaw),
		pipeline.NormalizeIncidents(incRaw),
		pipeline.NormalizeWipes(wipeRaw),
		time.Now(),
	)
	return &d, nil
}

// ExportDevices streams the filtered, sorted device table as CSV.
func (s *AnalyticsService) ExportDevices(ctx context.Context, w io.Writer, filter domain.FilterState, sort domain.SortState) error {
	raws, err := s.loadRaw(ctx, domain.KindDevice)
	if err != nil {
		return err
	}
	devices := pipeline.Sort(
		pipeline.Filter(pipeline.NormalizeDevices(raws), filter, pipeline.DeviceSchema),
		sort, pipeline.DeviceSchema,
	)
	return pipeline.ExportCSV(w, devices, pipeline.DeviceSchema)
}
