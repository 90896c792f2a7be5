package pulumi

import (
	"context"
	"io"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optrefresh"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/common/workspace"
	"github.com/rs/zerolog"

	"github.com/imamik/safehaven/internal/stack"
)

// engineStack is the part of auto.Stack the backend drives.
type engineStack interface {
	Name() string
	Workspace() auto.Workspace
	GetConfig(ctx context.Context, key string) (auto.ConfigValue, error)
	SetConfig(ctx context.Context, key string, val auto.ConfigValue) error
	GetAllConfig(ctx context.Context) (auto.ConfigMap, error)
	Refresh(ctx context.Context, opts ...optrefresh.Option) (auto.RefreshResult, error)
	Preview(ctx context.Context, opts ...optpreview.Option) (auto.PreviewResult, error)
	Up(ctx context.Context, opts ...optup.Option) (auto.UpResult, error)
	Destroy(ctx context.Context, opts ...optdestroy.Option) (auto.DestroyResult, error)
	Cancel(ctx context.Context) error
	Outputs(ctx context.Context) (auto.OutputMap, error)
}

// Backend implements stack.Backend on an engine stack.
type Backend struct {
	stack    engineStack
	progress io.Writer
}

func newBackend(s engineStack, log zerolog.Logger) *Backend {
	return &Backend{
		stack:    s,
		progress: &progressWriter{log: log.With().Str("engine_stack", s.Name()).Logger()},
	}
}

// InstallPlugin implements stack.Backend.
func (b *Backend) InstallPlugin(ctx context.Context, name, version string) error {
	return b.stack.Workspace().InstallPlugin(ctx, name, version)
}

// GetConfig implements stack.Backend.
func (b *Backend) GetConfig(ctx context.Context, key string) (stack.ConfigValue, bool, error) {
	v, err := b.stack.GetConfig(ctx, key)
	if err != nil {
		if isConfigNotFound(err) {
			return stack.ConfigValue{}, false, nil
		}
		return stack.ConfigValue{}, false, err
	}
	return stack.ConfigValue{Value: v.Value, Secret: v.Secret}, true, nil
}

// SetConfig implements stack.Backend.
func (b *Backend) SetConfig(ctx context.Context, key string, value stack.ConfigValue) error {
	return b.stack.SetConfig(ctx, key, auto.ConfigValue{Value: value.Value, Secret: value.Secret})
}

// GetAllConfig implements stack.Backend.
func (b *Backend) GetAllConfig(ctx context.Context) (map[string]stack.ConfigValue, error) {
	all, err := b.stack.GetAllConfig(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]stack.ConfigValue, len(all))
	for k, v := range all {
		out[k] = stack.ConfigValue{Value: v.Value, Secret: v.Secret}
	}
	return out, nil
}

// Refresh implements stack.Backend.
func (b *Backend) Refresh(ctx context.Context, opts stack.RefreshOptions) error {
	_, err := b.stack.Refresh(ctx, refreshOptions(opts, b.progress)...)
	return err
}

// Preview implements stack.Backend.
func (b *Backend) Preview(ctx context.Context, opts stack.PreviewOptions) error {
	_, err := b.stack.Preview(ctx, previewOptions(opts, b.progress)...)
	return err
}

// Up implements stack.Backend.
func (b *Backend) Up(ctx context.Context) (stack.UpResult, error) {
	res, err := b.stack.Up(ctx, optup.ProgressStreams(b.progress))
	out := stack.UpResult{
		Summary: stack.Summary{Result: res.Summary.Result},
		Outputs: convertOutputs(res.Outputs),
	}
	return out, err
}

// Destroy implements stack.Backend.
func (b *Backend) Destroy(ctx context.Context) (stack.DestroyResult, error) {
	res, err := b.stack.Destroy(ctx, optdestroy.ProgressStreams(b.progress))
	return stack.DestroyResult{Summary: stack.Summary{Result: res.Summary.Result}}, err
}

// Cancel implements stack.Backend.
func (b *Backend) Cancel(ctx context.Context) error {
	return b.stack.Cancel(ctx)
}

// Outputs implements stack.Backend.
func (b *Backend) Outputs(ctx context.Context) (stack.Outputs, error) {
	outputs, err := b.stack.Outputs(ctx)
	if err != nil {
		return nil, err
	}
	return convertOutputs(outputs), nil
}

// RemoveStack implements stack.Backend.
func (b *Backend) RemoveStack(ctx context.Context) error {
	return b.stack.Workspace().RemoveStack(ctx, b.stack.Name())
}

// Settings implements stack.Backend.
func (b *Backend) Settings(ctx context.Context) (stack.Settings, error) {
	ps, err := b.stack.Workspace().StackSettings(ctx, b.stack.Name())
	if err != nil {
		return stack.Settings{}, err
	}
	return stack.Settings{EncryptedKey: encryptedKey(ps)}, nil
}

func refreshOptions(opts stack.RefreshOptions, progress io.Writer) []optrefresh.Option {
	out := []optrefresh.Option{optrefresh.ProgressStreams(progress)}
	if opts.Parallel > 0 {
		out = append(out, optrefresh.Parallel(opts.Parallel))
	}
	if opts.ClearPendingCreates {
		out = append(out, optrefresh.ClearPendingCreates())
	}
	return out
}

func previewOptions(opts stack.PreviewOptions, progress io.Writer) []optpreview.Option {
	out := []optpreview.Option{optpreview.ProgressStreams(progress)}
	if opts.Parallel > 0 {
		out = append(out, optpreview.Parallel(opts.Parallel))
	}
	if opts.Diff {
		out = append(out, optpreview.Diff())
	}
	return out
}

func convertOutputs(in auto.OutputMap) stack.Outputs {
	if in == nil {
		return nil
	}
	out := make(stack.Outputs, len(in))
	for k, v := range in {
		out[k] = v.Value
	}
	return out
}

func encryptedKey(ps *workspace.ProjectStack) string {
	if ps == nil {
		return ""
	}
	return ps.EncryptedKey
}

// isConfigNotFound matches the engine's "config get" failure for a missing key.
func isConfigNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "configuration key") && strings.Contains(msg, "not found")
}
