package storage

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mutate"
)

// BackupSuffix is appended to a document path to name its backup sibling.
const BackupSuffix = ".bak"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the store directory

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-path append serialization
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, locks: make(map[string]*sync.Mutex)}, nil
}

// safePath resolves a relative path against the store root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes store root: %s", rel)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns metadata for every .md file.
// Backup files are skipped.
func (f *FS) List(dir string) ([]models.DocMeta, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocMeta
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.DocMeta{
			Path:      rel,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a store file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically replaces the file at path with content.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

// Backup copies the current file content to path+".bak", replacing any
// previous backup.
func (f *FS) Backup(path string) (string, error) {
	data, err := f.Read(path)
	if err != nil {
		return "", err
	}
	backupRel := path + BackupSuffix
	abs, err := f.safePath(backupRel)
	if err != nil {
		return "", err
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("storage: backup %s: %w", path, err)
	}
	return backupRel, nil
}

// Append performs the read-modify-write cycle for one document. The
// pre-mutation content is backed up before the new state is written.
// Appends to the same path are serialized with a per-path lock; this does
// not protect against concurrent writers in other processes.
func (f *FS) Append(path string, draft models.ItemDraft, now models.Clock) (models.Document, error) {
	lock := f.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := f.Read(path)
	if err != nil {
		return models.Document{}, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return models.Document{}, fmt.Errorf("storage: append %s: %w", path, err)
	}
	next, err := mutate.ApplyAppend(doc, draft, now)
	if err != nil {
		return models.Document{}, err
	}
	if _, err := f.Backup(path); err != nil {
		return models.Document{}, err
	}
	if err := f.Write(path, frontmatter.Serialize(next)); err != nil {
		return models.Document{}, err
	}
	return next, nil
}

// Delete removes a file from the store.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

func (f *FS) pathLock(path string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := filepath.Clean(path)
	if l, ok := f.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	f.locks[key] = l
	return l
}
