package stack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Cleanup step names, in execution order.
const (
	CleanupRemoveStack = "remove-stack"
	CleanupStateBackup = "remove-state-backup"
	CleanupPurgeVault  = "purge-key-vault"
)

// BlobStore reaches the objects kept next to the engine's state.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// VaultPurger purges soft-deleted secret stores so their names can be reused.
// Purging a name with nothing soft-deleted should return nil or ErrAbsent.
type VaultPurger interface {
	PurgeDeleted(ctx context.Context, name string) error
}

// CleanupTargets names what the cleanup coordinator removes after a destroy.
// A nil store or an empty name skips the corresponding step.
type CleanupTargets struct {
	Blobs     BlobStore
	BackupKey string
	Vaults    VaultPurger
	VaultName string
}

// Cleaner removes a destroyed stack's bookkeeping objects.
// Each step treats "already absent" as success.
type Cleaner struct {
	targets    CleanupTargets
	classifier *Classifier
	log        zerolog.Logger
}

// NewCleaner creates a cleanup coordinator.
func NewCleaner(targets CleanupTargets, classifier *Classifier, log zerolog.Logger) *Cleaner {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Cleaner{targets: targets, classifier: classifier, log: log}
}

type cleanupStep struct {
	name string
	run  func(ctx context.Context) error
	skip bool
}

// Run executes the cleanup steps against backend and returns the steps that
// completed. It stops at the first genuine failure and returns a
// *CleanupError listing the completed steps.
func (c *Cleaner) Run(ctx context.Context, stack string, backend Backend) ([]string, error) {
	steps := []cleanupStep{
		{
			name: CleanupRemoveStack,
			run:  backend.RemoveStack,
		},
		{
			name: CleanupStateBackup,
			run:  c.removeBackup,
			skip: c.targets.Blobs == nil || c.targets.BackupKey == "",
		},
		{
			name: CleanupPurgeVault,
			run: func(ctx context.Context) error {
				return c.targets.Vaults.PurgeDeleted(ctx, c.targets.VaultName)
			},
			skip: c.targets.Vaults == nil || c.targets.VaultName == "",
		},
	}

	var completed []string
	for _, step := range steps {
		log := c.log.With().Str("cleanup_step", step.name).Logger()
		if step.skip {
			log.Debug().Msg("cleanup step not configured, skipping")
			continue
		}

		err := step.run(ctx)
		switch {
		case err == nil:
			log.Info().Msg("cleanup step completed")
		case c.classifier.IsAbsent(err):
			log.Info().Msg("nothing to remove, already absent")
		default:
			log.Error().Err(err).Strs("completed", completed).Msg("cleanup step failed")
			return completed, &CleanupError{Stack: stack, Completed: completed, Failed: step.name, Err: err}
		}
		completed = append(completed, step.name)
	}
	return completed, nil
}

func (c *Cleaner) removeBackup(ctx context.Context) error {
	exists, err := c.targets.Blobs.Exists(ctx, c.targets.BackupKey)
	if err != nil {
		return fmt.Errorf("failed to check state backup %s: %w", c.targets.BackupKey, err)
	}
	if !exists {
		return ErrAbsent
	}
	return c.targets.Blobs.Delete(ctx, c.targets.BackupKey)
}
