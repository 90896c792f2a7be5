// Package keygen generates secret values for stack configuration.
//
// Generated values back "ensure"-style secret options: they are produced on
// every run but only written when the stack has no value yet, so the first
// generated password or key pair survives later deployments.
package keygen
