// Package config loads the deployment description (safehaven.yaml) and the
// environment tunables that control retries, credential caching and logging.
//
// The file describes what to deploy: the project, the environment and its
// components (which together determine the stack name), where the engine's
// state lives, and the configuration options to reconcile onto the stack.
// The environment covers how the tool behaves on this machine.
package config
