package handlers

import (
	"context"
	"fmt"
)

// Cancel handles the cancel command.
func Cancel(ctx context.Context, configPath string) error {
	s, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer s.writeMetrics()

	if err := s.orch.Cancel(ctx); err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	s.log.Info().Str("stack", s.cfg.StackName()).Msg("no update is running on the stack")
	return nil
}
