package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/safehaven/internal/config"
)

// Deploy handles the deploy command.
//
// Options from the configuration are queued on the orchestrator before the
// update runs. Generated secrets are queued as ensure-only so that the value
// created on the first deploy survives every later one.
func Deploy(ctx context.Context, configPath string, force bool) error {
	s, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer s.writeMetrics()

	if err := queueOptions(s.orch, s.cfg); err != nil {
		return err
	}

	s.log.Info().Int("options", len(s.cfg.Options)).Bool("force", force).Msg("starting deploy")
	if err := s.orch.Deploy(ctx, force); err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	s.log.Info().Str("stack", s.cfg.StackName()).Msg("stack deployed")
	return nil
}

func queueOptions(orch Lifecycle, cfg *config.Config) error {
	for _, opt := range cfg.Options {
		switch {
		case opt.Generate != "":
			value, err := generateValue(opt.Generate, cfg.StackName())
			if err != nil {
				return fmt.Errorf("failed to generate value for %q: %w", opt.Name, err)
			}
			orch.AddSecret(opt.Name, value, false)
		case opt.Secret:
			orch.AddSecret(opt.Name, opt.Value, opt.Replace)
		default:
			orch.AddOption(opt.Name, opt.Value, opt.Replace)
		}
	}
	return nil
}
