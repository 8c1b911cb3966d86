package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"intellidocs/model"
	"intellidocs/types"
)

// FileWatcher polls a source directory and reports files once their size has
// been stable for one tick, so half-copied uploads are not picked up.
type FileWatcher struct {
	cfg types.Config

	fileMutex       sync.Mutex
	fileFirstSeen   map[string]time.Time
	fileSizes       map[string]int64
	filesProcessing map[string]bool
}

func NewFileWatcher(cfg types.Config) *FileWatcher {
	createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir)
	return &FileWatcher{
		cfg:             cfg,
		fileFirstSeen:   make(map[string]time.Time),
		fileSizes:       make(map[string]int64),
		filesProcessing: make(map[string]bool),
	}
}

func (w *FileWatcher) Watch(ctx context.Context, fileChan chan<- string) {
	fmt.Printf("Start monitoring folder: %s\n", w.cfg.SourceDir)

	interval := w.cfg.MonitoringTime
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer fmt.Println("File watcher stopped and cleaned up")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(fileChan)
		}
	}
}

func (w *FileWatcher) scan(fileChan chan<- string) {
	files, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		fmt.Printf("error while reading source directory: %s\n", err)
		return
	}

	w.fileMutex.Lock()
	defer w.fileMutex.Unlock()

	current := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() || !model.IsSupported(file.Name()) {
			continue
		}
		path := filepath.Join(w.cfg.SourceDir, file.Name())
		current[path] = true

		if w.filesProcessing[path] {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if _, seen := w.fileFirstSeen[path]; !seen {
			w.fileFirstSeen[path] = time.Now()
			w.fileSizes[path] = info.Size()
			continue
		}
		if w.fileSizes[path] != info.Size() {
			w.fileSizes[path] = info.Size()
			continue
		}
		w.filesProcessing[path] = true
		fileChan <- path
	}

	for path := range w.fileFirstSeen {
		if !current[path] {
			delete(w.fileFirstSeen, path)
			delete(w.fileSizes, path)
			delete(w.filesProcessing, path)
		}
	}
}

// Done releases the processing mark after the file left the source dir.
func (w *FileWatcher) Done(path string) {
	w.fileMutex.Lock()
	defer w.fileMutex.Unlock()
	delete(w.fileFirstSeen, path)
	delete(w.fileSizes, path)
	delete(w.filesProcessing, path)
}

func createDirectories(dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("error creating directory %s: %s\n", dir, err)
		}
	}
}
