package archive

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// extract7zTimeout caps external extraction so corrupted archives cannot
// hang an install.
const extract7zTimeout = 5 * time.Minute

// extract7z extracts RAR and 7z archives using the system 7z command.
func (i *Installer) extract7z(ctx context.Context, archivePath, destDir string) error {
	if _, err := exec.LookPath("7z"); err != nil {
		return fmt.Errorf("7z command not found: install p7zip-full to extract .7z and .rar files")
	}

	ctx, cancel := context.WithTimeout(ctx, extract7zTimeout)
	defer cancel()

	// -y: assume yes to all queries; -o: output directory (no space between -o and path)
	cmd := exec.CommandContext(ctx, "7z", "x", "-y", "-o"+destDir, archivePath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("7z extraction timed out after %v", extract7zTimeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("7z extraction failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}
