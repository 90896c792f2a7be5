package stack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PendingOption is a configuration entry waiting to be written.
type PendingOption struct {
	Name   string
	Value  string
	Secret bool
	// Replace overwrites an existing value. Without it the value is only
	// written when the stack has none.
	Replace bool
}

// Reconciler queues configuration options and flushes them to a stack.
// Options are kept in insertion order; adding a name twice keeps its
// original position but takes the later value.
type Reconciler struct {
	order   []string
	pending map[string]PendingOption
	log     zerolog.Logger
}

// NewReconciler creates an empty reconciler.
func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{
		pending: make(map[string]PendingOption),
		log:     log,
	}
}

// AddOption queues a public configuration value.
func (r *Reconciler) AddOption(name, value string, replace bool) {
	r.add(PendingOption{Name: name, Value: value, Replace: replace})
}

// AddSecret queues a secret configuration value.
func (r *Reconciler) AddSecret(name, value string, replace bool) {
	r.add(PendingOption{Name: name, Value: value, Secret: true, Replace: replace})
}

func (r *Reconciler) add(opt PendingOption) {
	if _, ok := r.pending[opt.Name]; !ok {
		r.order = append(r.order, opt.Name)
	}
	r.pending[opt.Name] = opt
}

// Pending returns the queued options in order.
func (r *Reconciler) Pending() []PendingOption {
	out := make([]PendingOption, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pending[name])
	}
	return out
}

// Len returns the number of queued options.
func (r *Reconciler) Len() int {
	return len(r.order)
}

// Apply writes every queued option to the backend and returns how many
// values were actually written. Options are dequeued as they are applied, so
// after an error only the unapplied remainder stays queued.
//
// Probing for an existing value is best-effort: a failed probe is logged and
// the option is treated as unset. Replace options whose value is already in
// place are not rewritten.
func (r *Reconciler) Apply(ctx context.Context, backend Backend) (int, error) {
	written := 0
	for len(r.order) > 0 {
		name := r.order[0]
		opt := r.pending[name]

		existing, found, err := backend.GetConfig(ctx, name)
		if err != nil {
			r.log.Debug().Err(err).Str("option", name).Msg("config probe failed, treating option as unset")
			found = false
		}
		write := !found
		if opt.Replace && found {
			write = existing.Value != opt.Value || existing.Secret != opt.Secret
		}

		if write {
			if err := backend.SetConfig(ctx, name, ConfigValue{Value: opt.Value, Secret: opt.Secret}); err != nil {
				return written, fmt.Errorf("failed to set %q: %w", name, err)
			}
			written++
			r.log.Debug().Str("option", name).Bool("secret", opt.Secret).Bool("replace", opt.Replace).Msg("config option written")
		} else {
			r.log.Debug().Str("option", name).Bool("replace", opt.Replace).Msg("config option already set, keeping existing value")
		}

		delete(r.pending, name)
		r.order = r.order[1:]
	}
	return written, nil
}
