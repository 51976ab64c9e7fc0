package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
)

type memDatasetStore struct {
	datasets []*domain.Dataset
	rows     map[string][]domain.RawRecord
}

func (m *memDatasetStore) CreateDataset(_ context.Context, ds *domain.Dataset, rows []domain.RawRecord) error {
	if m.rows == nil {
		m.rows = make(map[string][]domain.RawRecord)
	}
	m.datasets = append(m.datasets, ds)
	m.rows[ds.ID] = rows
	return nil
}

func (m *memDatasetStore) ListDatasets(_ context.Context) ([]*domain.Dataset, error) {
	return m.datasets, nil
}

func (m *memDatasetStore) DeleteDataset(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type capturePublisher struct {
	kind domain.RecordKind
	rows []domain.RawRecord
}

func (c *capturePublisher) Publish(_ context.Context, kind domain.RecordKind, rows []domain.RawRecord) error {
	c.kind = kind
	c.rows = rows
	return nil
}

func newDatasetFixture() (*DatasetService, *memDatasetStore, *capturePublisher, *memRecorder) {
	store := &memDatasetStore{}
	pub := &capturePublisher{}
	rec := &memRecorder{}
	svc := NewDatasetService(store, pub, rec, metrics.New(nil), zap.NewNop())
	return svc, store, pub, rec
}

func TestIngestJSONUpload(t *testing.T) {
	svc, store, pub, rec := newDatasetFixture()

	body := strings.NewReader(`[
		{"Username": "alice", "Platform": "macOS"},
		{"Username": "bob", "Platform": "Windows"}
	]`)
	ds, err := svc.Ingest(context.Background(), UploadRequest{
		Tool:     domain.ToolMDM,
		Kind:     domain.KindDevice,
		Filename: "devices.json",
		UserID:   "u-1",
	}, body)
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 2, ds.RecordCount)
	assert.Len(t, store.rows[ds.ID], 2)

	assert.Equal(t, domain.KindDevice, pub.kind)
	assert.Len(t, pub.rows, 2)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionUploadDataset, rec.events[0].Action)
	assert.Equal(t, ds.ID, rec.events[0].Target)
}

func TestIngestCSVUpload(t *testing.T) {
	svc, store, _, _ := newDatasetFixture()

	body := strings.NewReader(
		"Username,Platform,Encrypted\n" +
			"alice,macOS,Y\n" +
			"bob,\"Windows, Pro\",N\n")
	ds, err := svc.Ingest(context.Background(), UploadRequest{
		Tool:     domain.ToolMDM,
		Kind:     domain.KindDevice,
		Filename: "devices.csv",
		UserID:   "u-1",
	}, body)
	require.NoError(t, err)
	require.Equal(t, 2, ds.RecordCount)

	rows := store.rows[ds.ID]
	assert.Equal(t, "alice", rows[0]["Username"])
	// Quoted field with an embedded comma survives intact.
	assert.Equal(t, "Windows, Pro", rows[1]["Platform"])
}

func TestIngestRejectsUnknownTool(t *testing.T) {
	svc, _, _, _ := newDatasetFixture()

	_, err := svc.Ingest(context.Background(), UploadRequest{
		Tool: "crowdstrike", Kind: domain.KindDevice, Filename: "x.json",
	}, strings.NewReader("[]"))
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestIngestRejectsUnknownKind(t *testing.T) {
	svc, _, _, _ := newDatasetFixture()

	_, err := svc.Ingest(context.Background(), UploadRequest{
		Tool: domain.ToolMDM, Kind: "printer", Filename: "x.json",
	}, strings.NewReader("[]"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestIngestRejectsEmptyAndBadFormat(t *testing.T) {
	svc, _, _, _ := newDatasetFixture()

	_, err := svc.Ingest(context.Background(), UploadRequest{
		Tool: domain.ToolSIEM, Kind: domain.KindIncident, Filename: "x.json",
	}, strings.NewReader("[]"))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = svc.Ingest(context.Background(), UploadRequest{
		Tool: domain.ToolSIEM, Kind: domain.KindIncident, Filename: "x.xlsx",
	}, strings.NewReader("junk"))
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestDeleteRecordsAudit(t *testing.T) {
	svc, _, _, rec := newDatasetFixture()

	require.NoError(t, svc.Delete(context.Background(), "ds-1", "admin-1"))
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionDeleteDataset, rec.events[0].Action)
	assert.Equal(t, "admin-1", rec.events[0].UserID)
}
