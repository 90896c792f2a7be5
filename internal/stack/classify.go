package stack

import (
	"errors"
	"strings"
)

// Class is the outcome of classifying a backend failure.
type Class int

const (
	// ClassNone is the class of a nil error.
	ClassNone Class = iota
	// ClassTransientConflict marks teardown-ordering races that clear up on their own.
	ClassTransientConflict
	// ClassAlreadyAbsent marks "does not exist" failures of removal operations.
	ClassAlreadyAbsent
	// ClassIdle marks a cancel request when nothing was running.
	ClassIdle
	// ClassFatal is every other failure.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransientConflict:
		return "transient-conflict"
	case ClassAlreadyAbsent:
		return "already-absent"
	case ClassIdle:
		return "idle"
	default:
		return "fatal"
	}
}

// DefaultConflictSignatures match errors raised when a resource is deleted
// while another resource in the same batch still references it.
var DefaultConflictSignatures = []string{
	"InUseSubnetCannotBeDeleted",
	"NetworkProfileAlreadyInUseWithContainerNics",
	"is still in use by container network interfaces",
	"linked service is used by a solution",
	"CannotDeleteLinkedService",
}

// DefaultAbsentSignatures match errors of removal operations whose target is gone.
var DefaultAbsentSignatures = []string{
	"no stack named",
	"no such stack",
	"ResourceNotFound",
	"VaultNotFound",
	"DeletedVaultNotFound",
	"NoSuchKey",
	"was not found",
	"could not be found",
	"does not exist",
}

// DefaultIdleSignatures match cancel requests that found no running update.
var DefaultIdleSignatures = []string{
	"no update in progress",
	"update has already completed",
	"does not support cancel",
}

// maxErrorLines caps how many backend lines are attached to an error.
const maxErrorLines = 20

// Classifier sorts backend failures by matching their text against known
// signatures. Matching is case-insensitive.
type Classifier struct {
	Conflicts []string
	Absent    []string
	Idle      []string
}

// DefaultClassifier returns a classifier with the default signature sets.
func DefaultClassifier() *Classifier {
	return &Classifier{
		Conflicts: DefaultConflictSignatures,
		Absent:    DefaultAbsentSignatures,
		Idle:      DefaultIdleSignatures,
	}
}

// Classify returns the class of err. Conflict signatures win over absence.
func (c *Classifier) Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrAbsent) {
		return ClassAlreadyAbsent
	}
	text := strings.ToLower(err.Error())
	switch {
	case matchAny(text, c.Conflicts):
		return ClassTransientConflict
	case matchAny(text, c.Absent):
		return ClassAlreadyAbsent
	case matchAny(text, c.Idle):
		return ClassIdle
	default:
		return ClassFatal
	}
}

// IsTransientConflict reports whether err should be retried by the destroy loop.
func (c *Classifier) IsTransientConflict(err error) bool {
	return c.Classify(err) == ClassTransientConflict
}

// IsAbsent reports whether err means the target is already gone.
func (c *Classifier) IsAbsent(err error) bool {
	return c.Classify(err) == ClassAlreadyAbsent
}

// Lines extracts the lines of err worth showing an operator. Lines that
// mention an error are preferred; otherwise all non-blank lines are kept.
func (c *Classifier) Lines(err error) []string {
	if err == nil {
		return nil
	}
	var all, flagged []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		all = append(all, line)
		if strings.Contains(strings.ToLower(line), "error") {
			flagged = append(flagged, line)
		}
	}
	lines := all
	if len(flagged) > 0 {
		lines = flagged
	}
	if len(lines) > maxErrorLines {
		lines = lines[len(lines)-maxErrorLines:]
	}
	return lines
}

func matchAny(text string, signatures []string) bool {
	for _, sig := range signatures {
		if sig != "" && strings.Contains(text, strings.ToLower(sig)) {
			return true
		}
	}
	return false
}
