package stack

import (
	"errors"
	"fmt"
	"strings"
)

// Step names a lifecycle step in errors, logs and metrics.
type Step string

// Lifecycle steps.
const (
	StepLoad      Step = "load"
	StepConfigure Step = "configure"
	StepRefresh   Step = "refresh"
	StepPreview   Step = "preview"
	StepUpdate    Step = "update"
	StepDestroy   Step = "destroy"
	StepCleanup   Step = "cleanup"
	StepCancel    Step = "cancel"
)

// Error kinds. Match them with errors.Is against a *LifecycleError or *CleanupError.
var (
	ErrLoad              = errors.New("stack could not be loaded")
	ErrConfigApplication = errors.New("configuration could not be applied")
	ErrRefresh           = errors.New("refresh failed")
	ErrPreview           = errors.New("preview failed")
	ErrUpdate            = errors.New("update failed")
	ErrDestroy           = errors.New("destroy failed")
	ErrCleanup           = errors.New("cleanup failed")
	ErrConsistency       = errors.New("encrypted key mismatch")
	ErrCancellation      = errors.New("cancellation failed")

	// ErrNotFound is returned by Output and Secret for unknown names.
	ErrNotFound = errors.New("not found")

	// ErrAbsent may be returned by adapters when the object they were asked
	// to remove does not exist. The classifier treats it as already absent.
	ErrAbsent = errors.New("already absent")
)

// LifecycleError is the single error type surfaced by orchestrator operations.
type LifecycleError struct {
	Step  Step
	Stack string
	Kind  error
	// Lines are the backend's error lines picked out by the classifier.
	Lines []string
	Err   error
}

func newLifecycleError(step Step, kind error, stack string, err error, lines []string) *LifecycleError {
	return &LifecycleError{Step: step, Stack: stack, Kind: kind, Lines: lines, Err: err}
}

// Error always keeps the first line of the wrapped error, which names the
// failed operation (cleanup progress, retry attempts), followed by the
// classified backend lines.
func (e *LifecycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stack %s: %s step: %v", e.Stack, e.Step, e.Kind)
	header := headline(e.Err)
	if header != "" {
		b.WriteString(": ")
		b.WriteString(header)
	}
	for _, line := range e.Lines {
		if line == header {
			continue
		}
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

// headline returns the first non-blank line of err.
func headline(err error) string {
	if err == nil {
		return ""
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func (e *LifecycleError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// CleanupError reports a failed cleanup step together with the steps that
// had already completed, so the remainder can be finished by hand.
type CleanupError struct {
	Stack     string
	Completed []string
	Failed    string
	Err       error
}

func (e *CleanupError) Error() string {
	completed := "none"
	if len(e.Completed) > 0 {
		completed = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("stack %s: cleanup step %q failed (completed: %s): %v", e.Stack, e.Failed, completed, e.Err)
}

func (e *CleanupError) Unwrap() []error {
	return []error{ErrCleanup, e.Err}
}
