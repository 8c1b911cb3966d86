package obs

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder appends service events as JSONL. Recording is best effort: a
// write failure is logged and never surfaced to request handlers.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

type event struct {
	Timestamp string         `json:"ts"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
}

func NewRecorder(path string) *Recorder {
	if path == "" {
		path = filepath.Join("data", "logs", "events.jsonl")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Default().Warn("event log directory unavailable", "path", path, "error", err)
	}
	return &Recorder{path: path, logger: slog.Default()}
}

func (r *Recorder) Record(kind string, payload map[string]any) {
	rec := event{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05"),
		Kind:      kind,
		Payload:   payload,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("event marshal failed", "kind", kind, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.logger.Warn("event log open failed", "path", r.path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		r.logger.Warn("event log write failed", "path", r.path, "error", err)
	}
}
