package store

import (
	"testing"

	"intellidocs/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLifecycle(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("report.pdf", "/tmp/report.pdf")

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, doc.Status)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Empty(t, doc.Versions)
}

func TestGetUnknownDocument(t *testing.T) {
	s := NewDocumentStore()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestPushSummaryVersion(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("a.txt", "/tmp/a.txt")

	idx, err := s.PushSummaryVersion(id, "first summary", "ingest_summary", types.ValidationReport{OK: true, Score: 1.0})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = s.PushSummaryVersion(id, "second summary", "manual_save", types.ValidationReport{OK: true, Score: 0.9})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, doc.Status)
	assert.Equal(t, "second summary", doc.Summary)
	assert.Len(t, doc.Versions, 2)
}

func TestPushSummaryVersionUnknownDocument(t *testing.T) {
	s := NewDocumentStore()
	_, err := s.PushSummaryVersion("missing", "content", "note", types.ValidationReport{})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRollbackReappends(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("a.txt", "/tmp/a.txt")

	_, err := s.PushSummaryVersion(id, "version zero", "ingest_summary", types.ValidationReport{Score: 0.8})
	require.NoError(t, err)
	_, err = s.PushSummaryVersion(id, "version one", "manual_save", types.ValidationReport{Score: 0.9})
	require.NoError(t, err)

	require.True(t, s.Rollback(id, 0))

	versions, err := s.Versions(id)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	// earlier versions untouched
	assert.Equal(t, "version zero", versions[0].Content)
	assert.Equal(t, "version one", versions[1].Content)

	// new head is a copy of version 0
	assert.Equal(t, "version zero", versions[2].Content)
	assert.Equal(t, "rollback_to_0", versions[2].Note)
	assert.Equal(t, versions[0].Validation, versions[2].Validation)

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "version zero", doc.Summary)
	assert.Equal(t, types.StatusReady, doc.Status)
}

func TestRollbackOutOfBounds(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("a.txt", "/tmp/a.txt")
	_, err := s.PushSummaryVersion(id, "only one", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)

	assert.False(t, s.Rollback(id, 1))
	assert.False(t, s.Rollback(id, -1))
	assert.False(t, s.Rollback("missing", 0))

	versions, err := s.Versions(id)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestSetError(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("a.txt", "/tmp/a.txt")

	s.SetError(id, "Processing error: boom")

	doc, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, doc.Status)
	assert.Equal(t, "Processing error: boom", doc.Summary)

	// pushing a summary afterwards flips it back to ready
	_, err = s.PushSummaryVersion(id, "recovered", "manual_save", types.ValidationReport{})
	require.NoError(t, err)
	doc, _ = s.Get(id)
	assert.Equal(t, types.StatusReady, doc.Status)
	assert.Equal(t, "recovered", doc.Summary)
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewDocumentStore()
	id := s.Add("a.txt", "/tmp/a.txt")
	_, err := s.PushSummaryVersion(id, "original", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)

	doc, _ := s.Get(id)
	doc.Summary = "mutated"
	doc.Versions[0].Content = "mutated"

	fresh, _ := s.Get(id)
	assert.Equal(t, "original", fresh.Summary)
	assert.Equal(t, "original", fresh.Versions[0].Content)
}
