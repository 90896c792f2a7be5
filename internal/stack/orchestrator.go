package stack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/safehaven/internal/util/retry"
)

// State is the lifecycle state of an orchestrator's stack.
type State int

// Lifecycle states. Deploy moves through Configured, Refreshed, Previewed
// and Updated; teardown through Configured, Refreshed, Destroyed and Cleaned.
const (
	StateUnloaded State = iota
	StateLoaded
	StateConfigured
	StateRefreshed
	StatePreviewed
	StateUpdated
	StateDestroyed
	StateCleaned
)

var stateNames = [...]string{
	StateUnloaded:   "unloaded",
	StateLoaded:     "loaded",
	StateConfigured: "configured",
	StateRefreshed:  "refreshed",
	StatePreviewed:  "previewed",
	StateUpdated:    "updated",
	StateDestroyed:  "destroyed",
	StateCleaned:    "cleaned",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Defaults applied by New.
const (
	DefaultDestroyMaxAttempts   = 60
	DefaultDestroyRetryInterval = 30 * time.Second
	DefaultParallel             = 1
)

// stepForgetRecord is reported in cleanup errors when the persisted record
// could not be dropped after a successful cleanup.
const stepForgetRecord = "forget-record"

// Options configure an Orchestrator.
type Options struct {
	Identity    Identity
	Workspace   Workspace
	Credentials Credentials
	Records     RecordStore
	Cleanup     CleanupTargets
	Plugins     []Plugin

	Classifier *Classifier
	Metrics    *Metrics
	Logger     zerolog.Logger

	// DestroyMaxAttempts bounds destroy attempts while failures are
	// transient conflicts. DestroyRetryInterval is the fixed wait between them.
	DestroyMaxAttempts   int
	DestroyRetryInterval time.Duration

	// Parallel is the engine parallelism requested for refresh and preview.
	Parallel int
}

// Orchestrator sequences lifecycle operations on a single stack.
// It is not safe for concurrent use.
type Orchestrator struct {
	id         Identity
	opts       Options
	classifier *Classifier
	config     *Reconciler
	cleaner    *Cleaner
	log        zerolog.Logger

	backend Backend
	record  *Record
	outputs Outputs
	state   State
}

// New creates an orchestrator. The stack is not touched until the first operation.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Identity.Project == "":
		return nil, errors.New("project name is required")
	case opts.Identity.Stack == "":
		return nil, errors.New("stack name is required")
	case opts.Workspace == nil:
		return nil, errors.New("workspace is required")
	case opts.Records == nil:
		return nil, errors.New("record store is required")
	}

	if opts.Classifier == nil {
		opts.Classifier = DefaultClassifier()
	}
	if opts.DestroyMaxAttempts <= 0 {
		opts.DestroyMaxAttempts = DefaultDestroyMaxAttempts
	}
	if opts.DestroyRetryInterval <= 0 {
		opts.DestroyRetryInterval = DefaultDestroyRetryInterval
	}
	if opts.Parallel <= 0 {
		opts.Parallel = DefaultParallel
	}

	log := opts.Logger.With().
		Str("project", opts.Identity.Project).
		Str("stack", opts.Identity.Stack).
		Logger()

	return &Orchestrator{
		id:         opts.Identity,
		opts:       opts,
		classifier: opts.Classifier,
		config:     NewReconciler(log),
		cleaner:    NewCleaner(opts.Cleanup, opts.Classifier, log),
		log:        log,
	}, nil
}

// Identity returns the stack this orchestrator owns.
func (o *Orchestrator) Identity() Identity {
	return o.id
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// AddOption queues a public configuration value for the next operation.
func (o *Orchestrator) AddOption(name, value string, replace bool) {
	o.config.AddOption(name, value, replace)
}

// AddSecret queues a secret configuration value for the next operation.
func (o *Orchestrator) AddSecret(name, value string, replace bool) {
	o.config.AddSecret(name, value, replace)
}

// Deploy applies queued configuration, refreshes, previews and updates the
// stack. It returns nil only after a successful update. With force, any
// operation left running by an earlier invocation is cancelled first.
func (o *Orchestrator) Deploy(ctx context.Context, force bool) error {
	o.log.Info().Bool("force", force).Msg("deploying stack")
	if force {
		if err := o.Cancel(ctx); err != nil {
			return err
		}
	}
	if err := o.configure(ctx); err != nil {
		return err
	}
	if err := o.refresh(ctx); err != nil {
		return err
	}
	o.preview(ctx)
	if err := o.update(ctx); err != nil {
		return err
	}
	o.log.Info().Msg("stack deployed")
	return nil
}

// Teardown refreshes and destroys the stack, then removes its bookkeeping
// objects. Transient teardown conflicts are retried; "already absent"
// conditions during cleanup are not errors.
//
// Cleanup only runs after a successful destroy. When the retries are
// exhausted the stack and its state backup are left in place so the
// teardown can be rerun, and the returned error carries the attempt count.
func (o *Orchestrator) Teardown(ctx context.Context, force bool) error {
	o.log.Info().Bool("force", force).Msg("tearing down stack")
	if force {
		if err := o.Cancel(ctx); err != nil {
			return err
		}
	}
	if err := o.configure(ctx); err != nil {
		return err
	}
	if err := o.refresh(ctx); err != nil {
		return err
	}
	if err := o.destroy(ctx); err != nil {
		return err
	}
	if err := o.cleanup(ctx); err != nil {
		return err
	}
	o.log.Info().Msg("stack torn down")
	return nil
}

// Cancel asks the engine to abort any in-flight operation, then refreshes
// with pending creates cleared so the stack is usable again. Resources the
// engine cannot reconcile are logged as warnings, not returned as errors.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	backend, err := o.load(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := backend.Cancel(ctx); err != nil {
		if o.classifier.Classify(err) != ClassIdle {
			o.opts.Metrics.observe(o.id.Stack, StepCancel, "failure", started)
			return o.fail(StepCancel, ErrCancellation, err)
		}
		o.log.Info().Msg("no operation in progress, nothing to cancel")
	}
	o.opts.Metrics.observe(o.id.Stack, StepCancel, "success", started)

	repair := RefreshOptions{Parallel: o.opts.Parallel, ClearPendingCreates: true}
	if err := backend.Refresh(ctx, repair); err != nil {
		o.log.Warn().
			Strs("lines", o.classifier.Lines(err)).
			Msg("could not reconcile interrupted operations, check the stack's resources manually")
	}

	o.state = StateLoaded
	return nil
}

// Output returns a named output of the stack. Outputs are taken from the
// last update made by this orchestrator, or read from the engine once if no
// update has run yet.
func (o *Orchestrator) Output(ctx context.Context, name string) (any, error) {
	if o.outputs == nil {
		backend, err := o.load(ctx)
		if err != nil {
			return nil, err
		}
		outputs, err := backend.Outputs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read outputs of stack %s: %w", o.id.Stack, err)
		}
		o.setOutputs(outputs)
	}

	value, ok := o.outputs[name]
	if !ok {
		return nil, fmt.Errorf("output %q of stack %s: %w", name, o.id.Stack, ErrNotFound)
	}
	return value, nil
}

// Secret returns a configuration value previously applied to the stack.
func (o *Orchestrator) Secret(ctx context.Context, name string) (string, error) {
	backend, err := o.load(ctx)
	if err != nil {
		return "", err
	}
	value, found, err := backend.GetConfig(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %q from stack %s: %w", name, o.id.Stack, err)
	}
	if !found {
		return "", fmt.Errorf("config %q of stack %s: %w", name, o.id.Stack, ErrNotFound)
	}
	return value.Value, nil
}

// load creates or selects the stack on first use, installs plugins and
// checks the encrypted key against the persisted record.
func (o *Orchestrator) load(ctx context.Context) (Backend, error) {
	if o.backend != nil {
		return o.backend, nil
	}

	var env map[string]string
	if o.opts.Credentials != nil {
		resolved, err := o.opts.Credentials.Env(ctx)
		if err != nil {
			return nil, o.fail(StepLoad, ErrLoad, fmt.Errorf("failed to resolve credentials: %w", err))
		}
		env = resolved
	}

	var backend Backend
	err := o.run(ctx, StepLoad, ErrLoad, func(ctx context.Context) error {
		b, err := o.opts.Workspace.CreateOrSelect(ctx, o.id, env)
		if err != nil {
			return fmt.Errorf("failed to create or select stack: %w", err)
		}
		for _, p := range o.opts.Plugins {
			if err := b.InstallPlugin(ctx, p.Name, p.Version); err != nil {
				return fmt.Errorf("failed to install plugin %s %s: %w", p.Name, p.Version, err)
			}
		}
		backend = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := o.verifyEncryptedKey(ctx, backend); err != nil {
		return nil, err
	}

	o.backend = backend
	o.state = StateLoaded
	o.log.Debug().Msg("stack loaded")
	return backend, nil
}

// verifyEncryptedKey adopts the stack's encrypted key into an empty record
// and rejects a stack whose key differs from the recorded one.
func (o *Orchestrator) verifyEncryptedKey(ctx context.Context, backend Backend) error {
	settings, err := backend.Settings(ctx)
	if err != nil {
		return o.fail(StepLoad, ErrLoad, fmt.Errorf("failed to read stack settings: %w", err))
	}

	record, err := o.loadRecord(ctx)
	if err != nil {
		return o.fail(StepLoad, ErrLoad, err)
	}

	switch {
	case record.EncryptedKey == "":
		if settings.EncryptedKey == "" {
			return nil
		}
		record.EncryptedKey = settings.EncryptedKey
		if err := o.opts.Records.Put(ctx, o.id.Project, record); err != nil {
			return o.fail(StepLoad, ErrLoad, fmt.Errorf("failed to persist encrypted key: %w", err))
		}
		o.log.Info().Msg("adopted encrypted key from stack")
	case record.EncryptedKey != settings.EncryptedKey:
		return o.fail(StepLoad, ErrConsistency,
			errors.New("the project record and the stack are protected by different encrypted keys"))
	}
	return nil
}

func (o *Orchestrator) loadRecord(ctx context.Context) (*Record, error) {
	if o.record != nil {
		return o.record, nil
	}
	record, found, err := o.opts.Records.Get(ctx, o.id.Project, o.id.Stack)
	if err != nil {
		return nil, fmt.Errorf("failed to read project record: %w", err)
	}
	if !found {
		record = &Record{StackName: o.id.Stack}
	}
	o.record = record
	return record, nil
}

// syncRecord replaces the record's config cache with the engine's view.
func (o *Orchestrator) syncRecord(ctx context.Context, backend Backend) error {
	all, err := backend.GetAllConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stack config: %w", err)
	}
	record, err := o.loadRecord(ctx)
	if err != nil {
		return err
	}
	record.Config = cacheConfig(all)
	if err := o.opts.Records.Put(ctx, o.id.Project, record); err != nil {
		return fmt.Errorf("failed to persist project record: %w", err)
	}
	return nil
}

func (o *Orchestrator) configure(ctx context.Context) error {
	backend, err := o.load(ctx)
	if err != nil {
		return err
	}

	err = o.run(ctx, StepConfigure, ErrConfigApplication, func(ctx context.Context) error {
		pending := o.config.Len()
		written, err := o.config.Apply(ctx, backend)
		if err != nil {
			return err
		}
		o.log.Info().Int("pending", pending).Int("written", written).Msg("configuration applied")
		return o.syncRecord(ctx, backend)
	})
	if err != nil {
		return err
	}
	o.state = StateConfigured
	return nil
}

func (o *Orchestrator) refresh(ctx context.Context) error {
	err := o.run(ctx, StepRefresh, ErrRefresh, func(ctx context.Context) error {
		return o.backend.Refresh(ctx, RefreshOptions{Parallel: o.opts.Parallel})
	})
	if err != nil {
		return err
	}
	o.state = StateRefreshed
	return nil
}

// preview is informational; its failures are logged and never returned.
func (o *Orchestrator) preview(ctx context.Context) {
	started := time.Now()
	err := o.backend.Preview(ctx, PreviewOptions{Parallel: o.opts.Parallel, Diff: true})
	if err != nil {
		o.opts.Metrics.observe(o.id.Stack, StepPreview, "ignored", started)
		o.log.Warn().
			Strs("lines", o.classifier.Lines(err)).
			Msg("preview failed, continuing with update")
	} else {
		o.opts.Metrics.observe(o.id.Stack, StepPreview, "success", started)
	}
	o.state = StatePreviewed
}

// update applies the stack. It is never retried.
func (o *Orchestrator) update(ctx context.Context) error {
	var result UpResult
	err := o.run(ctx, StepUpdate, ErrUpdate, func(ctx context.Context) error {
		r, err := o.backend.Up(ctx)
		if err != nil {
			return err
		}
		if !r.Summary.Succeeded() {
			return fmt.Errorf("update finished with result %q", r.Summary.Result)
		}
		result = r
		return nil
	})
	if err != nil {
		return err
	}

	o.setOutputs(result.Outputs)
	if err := o.syncRecord(ctx, o.backend); err != nil {
		return o.fail(StepUpdate, ErrUpdate, err)
	}
	o.state = StateUpdated
	return nil
}

// destroy retries only while the engine reports transient conflicts.
func (o *Orchestrator) destroy(ctx context.Context) error {
	started := time.Now()
	attempts := 0
	err := retry.WithFixedInterval(ctx, func() error {
		attempts++
		result, err := o.backend.Destroy(ctx)
		if err != nil {
			return err
		}
		if !result.Summary.Succeeded() {
			return retry.Fatal(fmt.Errorf("destroy finished with result %q", result.Summary.Result))
		}
		return nil
	},
		o.opts.DestroyMaxAttempts,
		o.opts.DestroyRetryInterval,
		retry.WithRetryIf(o.classifier.IsTransientConflict),
		retry.WithOnRetry(func(attempt int, err error) {
			o.opts.Metrics.destroyRetry(o.id.Stack)
			o.log.Warn().
				Int("attempt", attempt).
				Dur("backoff", o.opts.DestroyRetryInterval).
				Strs("lines", o.classifier.Lines(err)).
				Msg("destroy hit a transient conflict, retrying")
		}),
	)
	if err != nil {
		o.opts.Metrics.observe(o.id.Stack, StepDestroy, "failure", started)
		if retry.IsExhausted(err) {
			o.log.Warn().Int("attempts", attempts).Msg("destroy retries exhausted, stack left in place for a rerun")
		}
		return o.fail(StepDestroy, ErrDestroy, err)
	}
	o.opts.Metrics.observe(o.id.Stack, StepDestroy, "success", started)
	o.log.Info().Int("attempts", attempts).Msg("stack resources destroyed")
	o.state = StateDestroyed
	return nil
}

func (o *Orchestrator) cleanup(ctx context.Context) error {
	started := time.Now()
	completed, err := o.cleaner.Run(ctx, o.id.Stack, o.backend)
	if err == nil {
		if err = o.opts.Records.Delete(ctx, o.id.Project, o.id.Stack); err != nil {
			err = &CleanupError{Stack: o.id.Stack, Completed: completed, Failed: stepForgetRecord, Err: err}
		}
	}
	if err != nil {
		o.opts.Metrics.observe(o.id.Stack, StepCleanup, "failure", started)
		return o.fail(StepCleanup, ErrCleanup, err)
	}
	o.opts.Metrics.observe(o.id.Stack, StepCleanup, "success", started)

	o.backend = nil
	o.record = nil
	o.outputs = nil
	o.state = StateCleaned
	return nil
}

// run invokes one backend operation, records its metrics and turns a
// failure into a *LifecycleError of the given kind.
func (o *Orchestrator) run(ctx context.Context, step Step, kind error, fn func(context.Context) error) error {
	started := time.Now()
	if err := fn(ctx); err != nil {
		o.opts.Metrics.observe(o.id.Stack, step, "failure", started)
		return o.fail(step, kind, err)
	}
	o.opts.Metrics.observe(o.id.Stack, step, "success", started)
	return nil
}

// fail logs err with its classified lines at critical severity and wraps it.
func (o *Orchestrator) fail(step Step, kind, err error) *LifecycleError {
	lines := o.classifier.Lines(err)
	o.log.Error().
		Bool("critical", true).
		Str("step", string(step)).
		Str("state", o.state.String()).
		Strs("lines", lines).
		Msg(kind.Error())
	return newLifecycleError(step, kind, o.id.Stack, err, lines)
}

func (o *Orchestrator) setOutputs(outputs Outputs) {
	if outputs == nil {
		outputs = Outputs{}
	}
	o.outputs = outputs
}
