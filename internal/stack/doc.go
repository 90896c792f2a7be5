// Package stack drives the lifecycle of a single infrastructure stack.
//
// An [Orchestrator] owns exactly one stack for its lifetime and sequences the
// calls into the automation engine:
//
//	deploy:   load -> configure -> refresh -> preview -> update
//	teardown: load -> configure -> refresh -> destroy -> cleanup
//
// The engine is reached only through the [Backend] interface, which is
// produced once per orchestrator by a [Workspace]. Pending configuration is
// queued on a [Reconciler] and flushed before any step that reads it.
// Backend failures are classified by a [Classifier]: teardown-ordering races
// are retried inside the destroy step, "already absent" conditions are
// treated as success during cleanup, and everything else surfaces as a
// [LifecycleError] naming the failed step and the backend's error lines.
//
// The orchestrator is synchronous. It never runs two backend calls at once
// and asks the engine for parallelism 1 on refresh and preview.
package stack
