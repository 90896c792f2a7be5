package config

import (
	"fmt"

	"github.com/imamik/safehaven/internal/util/keygen"
	"github.com/imamik/safehaven/internal/util/naming"
)

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if naming.Slug(c.Environment) == "" {
		return fmt.Errorf("environment %q does not produce a usable stack name", c.Environment)
	}
	if c.Azure.SubscriptionID == "" {
		return fmt.Errorf("azure.subscription_id is required")
	}
	if c.Cleanup.PurgeKeyVault && c.Azure.Location == "" {
		return fmt.Errorf("azure.location is required when cleanup.purge_key_vault is set")
	}
	if c.State.Bucket == "" {
		return fmt.Errorf("state.bucket is required")
	}

	for i, p := range c.Plugins {
		if p.Name == "" || p.Version == "" {
			return fmt.Errorf("plugins[%d]: name and version are required", i)
		}
	}

	if err := c.validateOptions(); err != nil {
		return fmt.Errorf("option validation failed: %w", err)
	}
	return nil
}

func (c *Config) validateOptions() error {
	seen := make(map[string]bool, len(c.Options))
	for i, o := range c.Options {
		if o.Name == "" {
			return fmt.Errorf("options[%d]: name is required", i)
		}
		if seen[o.Name] {
			return fmt.Errorf("option %q is declared more than once", o.Name)
		}
		seen[o.Name] = true

		switch o.Generate {
		case "":
		case keygen.KindPassword, keygen.KindSSHKey:
			if o.Value != "" {
				return fmt.Errorf("option %q: value and generate are mutually exclusive", o.Name)
			}
			if o.Replace {
				return fmt.Errorf("option %q: generated values cannot be replaced", o.Name)
			}
		default:
			return fmt.Errorf("option %q: unknown generate kind %q (want %s or %s)",
				o.Name, o.Generate, keygen.KindPassword, keygen.KindSSHKey)
		}
	}
	return nil
}
