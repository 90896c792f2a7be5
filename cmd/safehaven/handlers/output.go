package handlers

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Output handles the output command. String outputs are printed as-is,
// structured outputs as YAML.
func Output(ctx context.Context, configPath, name string) error {
	s, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer s.writeMetrics()

	value, err := s.orch.Output(ctx, name)
	if err != nil {
		return err
	}
	return printValue(value)
}

// Secret handles the secret command.
func Secret(ctx context.Context, configPath, name string) error {
	s, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer s.writeMetrics()

	value, err := s.orch.Secret(ctx, name)
	if err != nil {
		return err
	}
	return printValue(value)
}

func printValue(value any) error {
	if str, ok := value.(string); ok {
		_, err := fmt.Fprintln(stdout, str)
		return err
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	_, err = stdout.Write(data)
	return err
}
