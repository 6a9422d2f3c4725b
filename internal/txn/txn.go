// Package txn implements the transactional install of a mod artifact into
// storage. An install stages into a temporary sibling directory, verifies the
// extracted payload, and swaps it into place with a backup of any previous
// version. Any failure before commit leaves the target untouched.
package txn

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hangar/internal/archive"
	"hangar/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State tracks a transaction's progress through its lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateStaged
	StateExtracted
	StateVerified
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStaged:
		return "staged"
	case StateExtracted:
		return "extracted"
	case StateVerified:
		return "verified"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Transaction installs one artifact into one target directory. It is not
// safe for concurrent use.
type Transaction struct {
	modID     string
	category  domain.Category
	target    string
	installer *archive.Installer
	log       zerolog.Logger

	state      State
	stagingDir string
}

// New creates a transaction that will install modID's artifact at target.
func New(modID string, category domain.Category, target string, installer *archive.Installer, log zerolog.Logger) *Transaction {
	return &Transaction{
		modID:     modID,
		category:  category,
		target:    target,
		installer: installer,
		log:       log.With().Str("mod", modID).Logger(),
		state:     StateNotStarted,
	}
}

// State returns the transaction's current state.
func (t *Transaction) State() State {
	return t.state
}

// StagingDir returns the staging directory path, empty before Begin.
func (t *Transaction) StagingDir() string {
	return t.stagingDir
}

// Begin creates the staging directory. It lives next to the target so the
// final rename stays on one filesystem.
func (t *Transaction) Begin() error {
	if t.state != StateNotStarted {
		return fmt.Errorf("begin from state %q", t.state)
	}

	parent := filepath.Dir(t.target)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating install parent: %w", err)
	}

	t.stagingDir = filepath.Join(parent, "hangar-stage-"+uuid.NewString())
	if err := os.MkdirAll(t.stagingDir, 0755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	t.state = StateStaged
	t.log.Debug().Str("staging", t.stagingDir).Msg("transaction staged")
	return nil
}

// Extract unpacks the downloaded artifact into the staging directory.
func (t *Transaction) Extract(ctx context.Context, artifactPath string) error {
	if t.state != StateStaged {
		return fmt.Errorf("extract from state %q", t.state)
	}
	if err := t.installer.Install(ctx, artifactPath, t.stagingDir, t.modID); err != nil {
		return err
	}
	t.state = StateExtracted
	return nil
}

// Verify checks the extracted payload before it can be committed. Every
// category requires a non-empty staging tree; plugins additionally need at
// least one regular file, since an archive of bare directories loads nothing.
func (t *Transaction) Verify() error {
	if t.state != StateExtracted {
		return fmt.Errorf("verify from state %q", t.state)
	}

	var fileCount int
	err := filepath.WalkDir(t.stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			fileCount++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("verifying staged files: %w", err)
	}

	if fileCount == 0 {
		return fmt.Errorf("%w: extraction produced no files", domain.ErrEmptyArtifact)
	}
	if t.category == domain.CategoryPlugin {
		hasRegular, err := stagingHasRegularFile(t.stagingDir)
		if err != nil {
			return fmt.Errorf("verifying staged files: %w", err)
		}
		if !hasRegular {
			return fmt.Errorf("%w: plugin archive contains no loadable files", domain.ErrInvalidArtifact)
		}
	}

	t.state = StateVerified
	return nil
}

func stagingHasRegularFile(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}

// Commit swaps the staged tree into place and runs persist to record the
// install. A previous version at the target is moved aside first and restored
// if persist fails, so the target never reflects an unrecorded install.
func (t *Transaction) Commit(persist func() error) error {
	if t.state != StateVerified {
		return fmt.Errorf("commit from state %q", t.state)
	}

	var backupDir string
	if _, err := os.Lstat(t.target); err == nil {
		backupDir = t.target + ".bak-" + uuid.NewString()
		if err := os.Rename(t.target, backupDir); err != nil {
			return fmt.Errorf("backing up previous version: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking install target: %w", err)
	}

	if err := os.Rename(t.stagingDir, t.target); err != nil {
		if backupDir != "" {
			if rerr := os.Rename(backupDir, t.target); rerr != nil {
				t.log.Error().Err(rerr).Msg("failed to restore previous version")
			}
		}
		return fmt.Errorf("moving staged files into place: %w", err)
	}

	if err := persist(); err != nil {
		// Undo the swap so the on-disk tree matches the records again.
		if rerr := os.RemoveAll(t.target); rerr != nil {
			t.log.Error().Err(rerr).Msg("failed to remove unrecorded install")
		}
		if backupDir != "" {
			if rerr := os.Rename(backupDir, t.target); rerr != nil {
				t.log.Error().Err(rerr).Msg("failed to restore previous version")
			}
		}
		t.state = StateRolledBack
		return fmt.Errorf("recording install: %w", err)
	}

	if backupDir != "" {
		if err := os.RemoveAll(backupDir); err != nil {
			t.log.Warn().Err(err).Str("backup", backupDir).Msg("failed to remove backup")
		}
	}

	t.state = StateCommitted
	t.log.Debug().Msg("transaction committed")
	return nil
}

// Rollback discards the staging directory. The target is never touched: only
// Commit modifies it, and Commit restores it on failure itself.
func (t *Transaction) Rollback() error {
	switch t.state {
	case StateCommitted:
		return fmt.Errorf("rollback from state %q", t.state)
	case StateRolledBack, StateNotStarted:
		return nil
	}

	if t.stagingDir != "" {
		if err := os.RemoveAll(t.stagingDir); err != nil {
			return fmt.Errorf("removing staging directory: %w", err)
		}
	}
	t.state = StateRolledBack
	t.log.Debug().Msg("transaction rolled back")
	return nil
}

// Close rolls back a transaction that never committed. It is idempotent and
// safe to defer right after New.
func (t *Transaction) Close() {
	if t.state == StateCommitted || t.state == StateRolledBack || t.state == StateNotStarted {
		return
	}
	if err := t.Rollback(); err != nil {
		t.log.Warn().Err(err).Msg("rollback during close failed")
	}
}
