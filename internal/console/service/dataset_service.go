package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
)

var (
	ErrUnknownTool   = errors.New("unknown source tool")
	ErrUnknownKind   = errors.New("unknown record kind")
	ErrBadFormat     = errors.New("unsupported upload format")
	ErrEmptyDataset  = errors.New("dataset has no rows")
	ErrDatasetTooBig = errors.New("dataset exceeds the row limit")
)

// maxUploadRows caps a single export so a runaway file cannot pin the
// normalizer or blow up the raw_records table.
const maxUploadRows = 250_000

// DatasetStore is the persistence surface the dataset service needs.
type DatasetStore interface {
	CreateDataset(ctx context.Context, ds *domain.Dataset, rows []domain.RawRecord) error
	ListDatasets(ctx context.Context) ([]*domain.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
}

// SnapshotPublisher pushes the newest rows of a kind to the shared
// cache so other console instances pick them up without a DB read.
type SnapshotPublisher interface {
	Publish(ctx context.Context, kind domain.RecordKind, rows []domain.RawRecord) error
}

// UploadRequest describes one export file handed to Ingest.
type UploadRequest struct {
	Tool     domain.SourceTool
	Kind     domain.RecordKind
	Filename string
	UserID   string
}

// DatasetService ingests tool exports (JSON or CSV) into raw records.
type DatasetService struct {
	store  DatasetStore
	pub    SnapshotPublisher
	trail  audit.Recorder
	m      *metrics.Metrics
	logger *zap.Logger
}

func NewDatasetService(store DatasetStore, pub SnapshotPublisher, trail audit.Recorder, m *metrics.Metrics, logger *zap.Logger) *DatasetService {
	return &DatasetService{
		store:  store,
		pub:    pub,
		trail:  trail,
		m:      m,
		logger: logger.Named("dataset"),
	}
}

// Ingest parses the upload, stores its rows verbatim and publishes the
// new snapshot. Rows are kept raw; normalization happens on read so a
// mapping fix never requires re-uploading.
func (s *DatasetService) Ingest(ctx context.Context, req UploadRequest, body io.Reader) (*domain.Dataset, error) {
	if !domain.KnownTool(req.Tool) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, req.Tool)
	}
	switch req.Kind {
	case domain.KindDevice, domain.KindViolation, domain.KindIncident, domain.KindWipe:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	rows, err := parseUpload(req.Filename, body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(rows) > maxUploadRows {
		return nil, fmt.Errorf("%w: %d rows", ErrDatasetTooBig, len(rows))
	}

	ds := &domain.Dataset{
		ID:          uuid.NewString(),
		Tool:        req.Tool,
		Kind:        req.Kind,
		Filename:    req.Filename,
		UploadedBy:  req.UserID,
		RecordCount: len(rows),
		CreatedAt:   time.Now(),
	}

	if err := s.store.CreateDataset(ctx, ds, rows); err != nil {
		return nil, fmt.Errorf("dataset: store upload: %w", err)
	}

	s.m.DatasetRecords.WithLabelValues(string(req.Kind)).Set(float64(len(rows)))

	// Cache miss just means readers fall back to the DB.
	if s.pub != nil {
		if err := s.pub.Publish(ctx, req.Kind, rows); err != nil {
			s.logger.Warn("snapshot publish failed",
				zap.String("dataset_id", ds.ID),
				zap.Error(err))
		}
	}

	s.trail.Record(audit.Event{
		UserID: req.UserID,
		Action: audit.ActionUploadDataset,
		Target: ds.ID,
		Detail: fmt.Sprintf("%s/%s %q (%d rows)", req.Tool, req.Kind, req.Filename, len(rows)),
		Status: "success",
	})

	s.logger.Info("dataset ingested",
		zap.String("dataset_id", ds.ID),
		zap.String("tool", string(req.Tool)),
		zap.String("kind", string(req.Kind)),
		zap.Int("rows", len(rows)))

	return ds, nil
}

func (s *DatasetService) List(ctx context.Context) ([]*domain.Dataset, error) {
	return s.store.ListDatasets(ctx)
}

func (s *DatasetService) Delete(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteDataset(ctx, id); err != nil {
		return err
	}
	s.trail.Record(audit.Event{
		UserID: userID,
		Action: audit.ActionDeleteDataset,
		Target: id,
		Status: "success",
	})
	return nil
}

// parseUpload picks the decoder by file extension. JSON exports are a
// top-level array of objects; CSV exports use the first row as header.
func parseUpload(filename string, body io.Reader) ([]domain.RawRecord, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".json"):
		return parseJSONUpload(body)
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return parseCSVUpload(body)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadFormat, filename)
	}
}

func parseJSONUpload(body io.Reader) ([]domain.RawRecord, error) {
	var rows []domain.RawRecord
	dec := json.NewDecoder(body)
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json upload: %w", err)
	}
	return rows, nil
}

func parseCSVUpload(body io.Reader) ([]domain.RawRecord, error) {
	r := csv.NewReader(body)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.RawRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		row := make(domain.RawRecord, len(header))
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
