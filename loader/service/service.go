package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"intellidocs/app/agent"
	"intellidocs/loader/internal"
	"intellidocs/model"
	"intellidocs/store"
	"intellidocs/types"
)

// Service watches a drop directory and runs each file through the same
// ingest pipeline the HTTP endpoint uses: extract, chunk, index, summarize,
// push the first summary version.
type Service struct {
	logger   *slog.Logger
	cfg      types.Config
	watcher  *internal.FileWatcher
	docs     *store.DocumentStore
	vstore   store.VectorStorer
	embedder *model.HashedEmbedder
}

func New(cfg types.Config, docs *store.DocumentStore, vstore store.VectorStorer, embedder *model.HashedEmbedder) *Service {
	return &Service{
		logger:   slog.Default(),
		cfg:      cfg,
		watcher:  internal.NewFileWatcher(cfg),
		docs:     docs,
		vstore:   vstore,
		embedder: embedder,
	}
}

func (s *Service) Stop() {
	s.logger.Info("Loader Service stopped")
}

func (s *Service) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.watcher.Watch(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.processFiles(ctx, fileChan)
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)

	<-sigch
	log.Println("Received shutdown signal, shutting down gracefully...")

	cancel()
	signal.Stop(sigch)
	close(sigch)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All goroutines stopped successfully")
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout reached, some goroutines may still be running")
	}
}

func (s *Service) processFiles(ctx context.Context, fileChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-fileChan:
			if !ok {
				return
			}
			if err := s.Ingest(ctx, path); err != nil {
				s.logger.Error("ingest failed", "file", path, "error", err)
				s.moveFile(path, s.cfg.BadDir)
			} else {
				s.moveFile(path, s.cfg.ArchiveDir)
			}
			s.watcher.Done(path)
		}
	}
}

// Ingest registers the file as a document and builds its index and first
// summary version. The document ends up ready or error, never both.
func (s *Service) Ingest(ctx context.Context, path string) error {
	docID := s.docs.Add(filepath.Base(path), path)

	text, err := model.ExtractText(path)
	if err != nil {
		s.docs.SetError(docID, fmt.Sprintf("Processing error: %v", err))
		return err
	}

	chunks := model.ChunkText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err := s.vstore.Upsert(ctx, docID, chunks); err != nil {
		s.docs.SetError(docID, fmt.Sprintf("Processing error: %v", err))
		return err
	}

	summary := agent.Summarize(s.embedder, chunks, s.cfg.SummaryWords)
	val := agent.ValidationFor(summary, s.cfg.SummaryWords)
	if _, err := s.docs.PushSummaryVersion(docID, summary, "ingest_summary", val); err != nil {
		return err
	}

	s.logger.Info("document ingested", "doc_id", docID, "file", filepath.Base(path), "chunks", len(chunks))
	return nil
}

func (s *Service) moveFile(path, destDir string) {
	if destDir == "" {
		return
	}
	dest := filepath.Join(destDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		s.logger.Error("error moving file", "from", path, "to", dest, "error", err)
	}
}
