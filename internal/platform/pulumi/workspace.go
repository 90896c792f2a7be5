package pulumi

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/rs/zerolog"

	"github.com/imamik/safehaven/internal/stack"
)

// Organization is the organization segment of fully qualified stack names
// on self-managed backends.
const Organization = "organization"

// Workspace implements stack.Workspace on local project sources.
type Workspace struct {
	projectDir      string
	secretsProvider string
	log             zerolog.Logger
}

// NewWorkspace creates a workspace for the project in projectDir. An empty
// secretsProvider keeps the engine's default.
func NewWorkspace(projectDir, secretsProvider string, log zerolog.Logger) (*Workspace, error) {
	if projectDir == "" {
		return nil, errors.New("project directory is required")
	}
	return &Workspace{projectDir: projectDir, secretsProvider: secretsProvider, log: log}, nil
}

// CreateOrSelect implements stack.Workspace.
func (w *Workspace) CreateOrSelect(ctx context.Context, id stack.Identity, env map[string]string) (stack.Backend, error) {
	opts := []auto.LocalWorkspaceOption{auto.EnvVars(env)}
	if w.secretsProvider != "" {
		opts = append(opts, auto.SecretsProvider(w.secretsProvider))
	}

	name := auto.FullyQualifiedStackName(Organization, id.Project, id.Stack)
	s, err := auto.UpsertStackLocalSource(ctx, name, w.projectDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create or select stack %s: %w", name, err)
	}

	proj, err := s.Workspace().ProjectSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read project settings in %s: %w", w.projectDir, err)
	}
	if proj != nil && string(proj.Name) != id.Project {
		return nil, fmt.Errorf("project directory %s holds project %q, expected %q", w.projectDir, proj.Name, id.Project)
	}

	w.log.Debug().Str("stack", name).Str("dir", w.projectDir).Msg("selected stack")
	return newBackend(&s, w.log), nil
}
