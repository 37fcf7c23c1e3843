// Package mediadir encapsulates all path knowledge for the media working
// directory. It provides a Dir value object with accessors for download
// destinations and decoded-segment scratch space.
package mediadir

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a value object that resolves paths within the media directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Default returns a Dir under the system temp directory.
func Default() Dir {
	return New(filepath.Join(os.TempDir(), "mcp-audio-analysis"))
}

// Root returns the absolute path to the media directory.
func (d Dir) Root() string { return d.root }

// DownloadsDir returns the path to the downloads directory. Downloaded files
// persist here; nothing cleans them up.
func (d Dir) DownloadsDir() string { return filepath.Join(d.root, "downloads") }

// SegmentsDir returns the path to the scratch directory for decoded analysis
// segments.
func (d Dir) SegmentsDir() string { return filepath.Join(d.root, "segments") }

// DownloadPath returns a fresh, collision-free destination inside downloads/
// for a file with the given extension (including the dot). Every call
// returns a different path.
func (d Dir) DownloadPath(ext string) string {
	return filepath.Join(d.DownloadsDir(), uuid.NewString()+ext)
}

// NamedDownloadPath returns the destination inside downloads/ for a
// caller-chosen filename. The name is reduced to its base so callers cannot
// escape the downloads directory. Repeated calls with the same name return
// the same path.
func (d Dir) NamedDownloadPath(name string) string {
	return filepath.Join(d.DownloadsDir(), filepath.Base(name))
}

// Exists reports whether the media root directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}
