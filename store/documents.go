package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"intellidocs/types"

	"github.com/google/uuid"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore owns per-document status and the append-only log of summary
// versions. It is constructor-injected into the service; nothing here is
// process-global.
type DocumentStore struct {
	mu   sync.Mutex
	docs map[string]*types.Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*types.Document)}
}

func (s *DocumentStore) Add(filename, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.docs[id] = &types.Document{
		ID:       id,
		Filename: filename,
		Path:     path,
		Status:   types.StatusPending,
	}
	return id
}

// Get returns a snapshot of the document; mutating it does not touch the
// stored record.
func (s *DocumentStore) Get(docID string) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	snapshot := *doc
	snapshot.Versions = append([]types.SummaryVersion(nil), doc.Versions...)
	return &snapshot, nil
}

// PushSummaryVersion appends a new version, marks the document ready and
// makes content the current summary. Returns the new version index.
func (s *DocumentStore) PushSummaryVersion(docID, content, note string, validation types.ValidationReport) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return 0, ErrDocumentNotFound
	}
	doc.Versions = append(doc.Versions, types.SummaryVersion{
		Content:    content,
		CreatedAt:  time.Now().UTC(),
		Note:       note,
		Validation: validation,
	})
	doc.Summary = content
	doc.Status = types.StatusReady
	return len(doc.Versions) - 1, nil
}

// Rollback re-appends a copy of an earlier version instead of truncating
// history: a checkout-and-recommit, later versions stay visible.
func (s *DocumentStore) Rollback(docID string, versionIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return false
	}
	if versionIndex < 0 || versionIndex >= len(doc.Versions) {
		return false
	}
	target := doc.Versions[versionIndex]
	doc.Versions = append(doc.Versions, types.SummaryVersion{
		Content:    target.Content,
		CreatedAt:  time.Now().UTC(),
		Note:       fmt.Sprintf("rollback_to_%d", versionIndex),
		Validation: target.Validation,
	})
	doc.Summary = target.Content
	doc.Status = types.StatusReady
	return true
}

// SetError flips the document into the error state. The message lands in the
// slot that otherwise carries the summary; ready and error never coexist.
func (s *DocumentStore) SetError(docID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return
	}
	doc.Status = types.StatusError
	doc.Summary = message
}

func (s *DocumentStore) Versions(docID string) ([]types.SummaryVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return append([]types.SummaryVersion(nil), doc.Versions...), nil
}
