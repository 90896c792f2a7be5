// Package pulumi adapts the Pulumi Automation API to the stack.Workspace and
// stack.Backend interfaces.
//
// The resource program lives in a project directory (with its Pulumi.yaml)
// outside this module; the adapter only drives the engine against it.
// Engine command errors are returned unchanged so that the orchestrator can
// classify their text.
package pulumi
