package stack

import (
	"context"
	"fmt"
)

// ResultSucceeded is the summary result reported by a successful update or destroy.
const ResultSucceeded = "succeeded"

// Identity names a stack. It is fixed once the orchestrator is built.
type Identity struct {
	Project string
	Stack   string
}

func (i Identity) String() string {
	return fmt.Sprintf("%s/%s", i.Project, i.Stack)
}

// ConfigValue is a single stack configuration entry.
type ConfigValue struct {
	Value  string
	Secret bool
}

// Plugin is an engine plugin that must be present before the stack runs.
type Plugin struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Settings holds the stack-level settings the orchestrator checks on load.
type Settings struct {
	EncryptedKey string
}

// Outputs maps stack output names to their values.
type Outputs map[string]any

// Summary describes how an engine operation finished.
type Summary struct {
	Result string
}

// Succeeded reports whether the operation finished successfully.
func (s Summary) Succeeded() bool {
	return s.Result == ResultSucceeded
}

// UpResult is returned by Backend.Up.
type UpResult struct {
	Summary Summary
	Outputs Outputs
}

// DestroyResult is returned by Backend.Destroy.
type DestroyResult struct {
	Summary Summary
}

// RefreshOptions tune a refresh.
type RefreshOptions struct {
	Parallel int
	// ClearPendingCreates drops pending create operations left behind by an
	// interrupted update instead of failing on them.
	ClearPendingCreates bool
}

// PreviewOptions tune a preview.
type PreviewOptions struct {
	Parallel int
	Diff     bool
}

// Backend is a loaded stack in the automation engine.
//
// GetConfig reports a missing key through its boolean result, not an error.
// Every other method returns the engine's command error unchanged so that the
// caller can classify it.
type Backend interface {
	InstallPlugin(ctx context.Context, name, version string) error
	GetConfig(ctx context.Context, key string) (ConfigValue, bool, error)
	SetConfig(ctx context.Context, key string, value ConfigValue) error
	GetAllConfig(ctx context.Context) (map[string]ConfigValue, error)
	Refresh(ctx context.Context, opts RefreshOptions) error
	Preview(ctx context.Context, opts PreviewOptions) error
	Up(ctx context.Context) (UpResult, error)
	Destroy(ctx context.Context) (DestroyResult, error)
	Cancel(ctx context.Context) error
	Outputs(ctx context.Context) (Outputs, error)
	RemoveStack(ctx context.Context) error
	Settings(ctx context.Context) (Settings, error)
}

// Workspace creates or selects stacks in the automation engine.
type Workspace interface {
	CreateOrSelect(ctx context.Context, id Identity, env map[string]string) (Backend, error)
}

// Credentials resolves the environment variables the engine needs to reach
// the cloud provider and the state backend.
type Credentials interface {
	Env(ctx context.Context) (map[string]string, error)
}
