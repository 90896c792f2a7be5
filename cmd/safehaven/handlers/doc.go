// Package handlers implements the CLI commands.
//
// Each handler loads the environment settings and the deployment
// configuration, builds a stack orchestrator on the real adapters and runs
// one lifecycle operation. The factory variables below are replaced in tests.
package handlers
