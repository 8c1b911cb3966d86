package types

import (
	"time"
)

type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusReady   DocumentStatus = "ready"
	StatusError   DocumentStatus = "error"
)

type Document struct {
	ID       string
	Filename string
	Path     string
	// Summary holds the current summary when Status is ready and the
	// error message when Status is error. The two states never coexist.
	Summary  string
	Status   DocumentStatus
	Versions []SummaryVersion
}

// SummaryVersion is one entry of a document's append-only summary history.
// Versions are never mutated or removed once appended.
type SummaryVersion struct {
	Content    string           `json:"content"`
	CreatedAt  time.Time        `json:"created_at"`
	Note       string           `json:"note"`
	Validation ValidationReport `json:"validation"`
}

type ValidationReport struct {
	OK           bool     `json:"ok"`
	Score        float64  `json:"score"`
	Messages     []string `json:"messages"`
	WordCount    int      `json:"word_count"`
	OverlapRatio float64  `json:"overlap_ratio,omitempty"`
}

// SearchResult is a single retrieval hit. Search responses are ordered by
// descending Score with ties broken by (DocID, ChunkIdx) ascending.
type SearchResult struct {
	DocID    string  `json:"doc_id"`
	ChunkIdx int     `json:"chunk_idx"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

type Config struct {
	ListenAddr     string
	DatabaseURL    string
	UploadDir      string
	EventLogPath   string
	EmbeddingDim   int
	ChunkSize      int
	ChunkOverlap   int
	SummaryWords   int
	MonitoringTime time.Duration
	SourceDir      string
	ArchiveDir     string
	BadDir         string
}
