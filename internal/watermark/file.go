package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the watermark as a small JSON document on disk.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore creates the parent directory if needed. The file itself is
// created on the first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("watermark file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create watermark directory: %w", err)
	}
	return &FileStore{filePath: path}, nil
}

func (fs *FileStore) GetLastJob(_ context.Context) (*Watermark, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("📋 No last job recorded in %s", fs.filePath)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", fs.filePath, err)
	}

	var w Watermark
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fs.filePath, err)
	}
	if !recorded(w.JobTitle) {
		log.Printf("⚠️ Incomplete last job record in %s, ignoring it", fs.filePath)
		return nil, nil
	}
	return &w, nil
}

// SaveLastJob writes through a temp file and renames it over the old record.
func (fs *FileStore) SaveLastJob(_ context.Context, w Watermark) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal last job: %w", err)
	}

	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", fs.filePath, err)
	}
	log.Printf("💾 Last job saved to %s: %s", fs.filePath, w)
	return nil
}

func (fs *FileStore) Close() error { return nil }
