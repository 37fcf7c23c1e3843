package mediadir

import (
	"fmt"
	"os"
)

// EnsureStructure creates the downloads/ and segments/ directories if they
// are missing. It is safe to call multiple times (idempotent). The media
// root itself is created as needed.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.DownloadsDir(), 0o750); err != nil {
		return fmt.Errorf("mediadir: create downloads dir: %w", err)
	}

	if err := os.MkdirAll(d.SegmentsDir(), 0o750); err != nil {
		return fmt.Errorf("mediadir: create segments dir: %w", err)
	}

	return nil
}
