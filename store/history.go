package store

import (
	"sync"
	"time"

	"intellidocs/types"
)

const defaultHistorySize = 200

// QAHistory keeps the most recent question/answer records for the UI.
type QAHistory struct {
	mu    sync.Mutex
	items []types.QARecord
	max   int
}

func NewQAHistory(max int) *QAHistory {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &QAHistory{max: max}
}

func (h *QAHistory) Add(question, answer string, sources []string, validation types.ValidationReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, types.QARecord{
		Timestamp:  time.Now().UTC(),
		Question:   question,
		Answer:     answer,
		Sources:    sources,
		Validation: validation,
	})
	if len(h.items) > h.max {
		h.items = h.items[len(h.items)-h.max:]
	}
}

// List returns up to last records, newest first.
func (h *QAHistory) List(last int) []types.QARecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if last <= 0 || last > len(h.items) {
		last = len(h.items)
	}
	out := make([]types.QARecord, 0, last)
	for i := len(h.items) - 1; i >= len(h.items)-last; i-- {
		out = append(out, h.items[i])
	}
	return out
}
