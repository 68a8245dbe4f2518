// Package emit owns the output directory of a run: concretized artifacts,
// the run manifest, and the downstream synthesis flow files.
package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/manifest"
	"github.com/vk/rtlforge/internal/model"
)

// Writer writes run outputs under a single root directory. Artifact writes
// are idempotent per resolution key; two different resolutions claiming the
// same file name is an error rather than a silent overwrite.
type Writer struct {
	root string

	mu      sync.Mutex
	written map[string]string
}

// NewWriter creates the output directory and a writer rooted in it.
func NewWriter(root string) (*Writer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{root: root, written: make(map[string]string)}, nil
}

// Root returns the output directory path.
func (w *Writer) Root() string {
	return w.root
}

// WriteArtifact persists one artifact. Re-writing the same resolution key is
// a no-op; a file-name collision between different keys fails.
func (w *Writer) WriteArtifact(ctx context.Context, a *model.Artifact) error {
	name := a.FileName()

	w.mu.Lock()
	if key, ok := w.written[name]; ok {
		w.mu.Unlock()
		if key == a.Key {
			return nil
		}
		return fmt.Errorf("artifact file %q already written by a different resolution", name)
	}
	w.written[name] = a.Key
	w.mu.Unlock()

	path := filepath.Join(w.root, name)
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		w.mu.Lock()
		delete(w.written, name)
		w.mu.Unlock()
		return fmt.Errorf("writing artifact %q: %w", name, err)
	}

	ctxlog.FromContext(ctx).Debug("Artifact written.", "file", name, "bytes", len(a.Content))
	return nil
}

// WriteManifest serializes the run manifest as manifest.json.
func (w *Writer) WriteManifest(ctx context.Context, m *manifest.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.root, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Manifest written.", "file", "manifest.json", "entries", len(m.Entries))
	return nil
}

// ArtifactFiles lists the artifact file names written so far, unordered.
func (w *Writer) ArtifactFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.written))
	for name := range w.written {
		files = append(files, name)
	}
	return files
}
