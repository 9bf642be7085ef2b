package buffer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// File is a TextBuffer backed by a file on disk. The live text is held in
// memory; Persist flushes it to the file.
type File struct {
	mu   sync.Mutex
	path string
	live string
}

// OpenFile creates a file buffer for path. A missing file reads as empty,
// so new files can be created by writing and persisting.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &File{path: path, live: string(data)}, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) Read(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live, nil
}

func (f *File) Write(ctx context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = content
	return nil
}

func (f *File) Persist(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(f.live), 0644)
}

func (f *File) Revert(ctx context.Context, snapshot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = snapshot
	return os.WriteFile(f.path, []byte(snapshot), 0644)
}
