package handlers

import (
	"context"
	"fmt"
)

// Teardown handles the teardown command.
func Teardown(ctx context.Context, configPath string, force bool) error {
	s, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer s.writeMetrics()

	s.log.Warn().Bool("force", force).Msg("starting teardown")
	if err := s.orch.Teardown(ctx, force); err != nil {
		return fmt.Errorf("teardown failed: %w", err)
	}

	s.log.Info().Str("stack", s.cfg.StackName()).Msg("stack destroyed and cleaned up")
	return nil
}
