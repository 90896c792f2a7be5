package stack

import "context"

// SecretPlaceholder replaces secret values in the persisted config cache.
const SecretPlaceholder = "[secret]"

// Record is the durable, per-stack entry of a project's persisted record.
type Record struct {
	StackName string `yaml:"stack_name"`
	// EncryptedKey is adopted from the stack on first load and must match it
	// on every later load.
	EncryptedKey string `yaml:"encrypted_key,omitempty"`
	// Config caches the stack configuration as of the last successful
	// configure or update.
	Config map[string]string `yaml:"stack_config,omitempty"`
}

// RecordStore persists records keyed by project and stack name.
// Get reports an absent record through its boolean result.
type RecordStore interface {
	Get(ctx context.Context, project, stack string) (*Record, bool, error)
	Put(ctx context.Context, project string, record *Record) error
	Delete(ctx context.Context, project, stack string) error
}

// cacheConfig converts the engine's config view to the form stored in a record.
func cacheConfig(all map[string]ConfigValue) map[string]string {
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v.Secret {
			out[k] = SecretPlaceholder
			continue
		}
		out[k] = v.Value
	}
	return out
}
