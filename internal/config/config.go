package config

import (
	"github.com/imamik/safehaven/internal/stack"
	"github.com/imamik/safehaven/internal/util/naming"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "safehaven.yaml"

// Config is the deployment description.
type Config struct {
	Project     string   `yaml:"project"`
	Environment string   `yaml:"environment"`
	Components  []string `yaml:"components,omitempty"`

	// ProjectDir holds the engine project (Pulumi.yaml and program).
	// Relative paths are resolved against the config file's directory.
	ProjectDir      string `yaml:"project_dir"`
	SecretsProvider string `yaml:"secrets_provider,omitempty"`

	Azure   AzureConfig    `yaml:"azure"`
	State   StateConfig    `yaml:"state"`
	Cleanup CleanupConfig  `yaml:"cleanup,omitempty"`
	Plugins []stack.Plugin `yaml:"plugins,omitempty"`
	Options []Option       `yaml:"options,omitempty"`
}

// AzureConfig selects the subscription the stack deploys into.
type AzureConfig struct {
	SubscriptionID string `yaml:"subscription_id"`
	TenantID       string `yaml:"tenant_id,omitempty"`
	Location       string `yaml:"location"`
}

// StateConfig locates the S3-compatible bucket holding the engine's state
// and the project records.
type StateConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Bucket   string `yaml:"bucket"`
	// Prefix is prepended to project record keys.
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// CleanupConfig tunes what is removed after a stack is destroyed.
type CleanupConfig struct {
	// PurgeKeyVault purges the stack's soft-deleted key vault.
	PurgeKeyVault bool `yaml:"purge_key_vault,omitempty"`
	// KeyVaultName overrides the vault name derived from the stack name.
	KeyVaultName string `yaml:"key_vault_name,omitempty"`
	// KeepStateBackup leaves the engine's state backup in the bucket.
	KeepStateBackup bool `yaml:"keep_state_backup,omitempty"`
}

// Option is a stack configuration option to reconcile.
type Option struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value,omitempty"`
	Secret bool   `yaml:"secret,omitempty"`
	// Replace overwrites an existing value; otherwise the option is only
	// set when absent.
	Replace bool `yaml:"replace,omitempty"`
	// Generate creates the value on first deploy (password or ssh-key).
	// Generated options are always secret and never replaced.
	Generate string `yaml:"generate,omitempty"`
}

// StackName returns the stack name derived from the environment and its
// components.
func (c *Config) StackName() string {
	return naming.Stack(c.Environment, c.Components...)
}

// Identity returns the stack identity described by the config.
func (c *Config) Identity() stack.Identity {
	return stack.Identity{Project: c.Project, Stack: c.StackName()}
}

// KeyVaultName returns the vault to purge after teardown.
func (c *Config) KeyVaultName() string {
	if c.Cleanup.KeyVaultName != "" {
		return c.Cleanup.KeyVaultName
	}
	return naming.KeyVault(c.StackName())
}

// StateBackupKey returns the object key of the stack's state backup.
func (c *Config) StateBackupKey() string {
	return naming.StateBackup(c.Project, c.StackName())
}
