package naming

import (
	"fmt"
	"strings"
)

// Prefix is prepended to every stack name.
const Prefix = "shm"

// maxKeyVaultName is the Azure limit for key vault names.
const maxKeyVaultName = 24

// Slug lowercases s and collapses every run of characters outside
// [a-z0-9] into a single hyphen. Leading and trailing hyphens are dropped.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Stack returns the stack name for an environment component,
// e.g. Stack("acme", "SRE sandbox") == "shm-acme-sre-sandbox".
func Stack(environment string, components ...string) string {
	parts := []string{Prefix, Slug(environment)}
	for _, c := range components {
		if s := Slug(c); s != "" {
			parts = append(parts, s)
		}
	}
	return Slug(strings.Join(parts, "-"))
}

// StateBackup returns the object key of the engine's state backup for a stack.
func StateBackup(project, stack string) string {
	return fmt.Sprintf(".pulumi/stacks/%s/%s.json.bak", project, stack)
}

// ProjectRecord returns the object key holding the persisted record of a project.
func ProjectRecord(prefix, project string) string {
	key := fmt.Sprintf("%s.yaml", Slug(project))
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// KeyVault returns the secret-store name derived from a stack name.
// Hyphens are kept but the result is cut to the provider's length limit.
func KeyVault(stack string) string {
	name := "kv-" + Slug(stack)
	if len(name) > maxKeyVaultName {
		name = strings.TrimRight(name[:maxKeyVaultName], "-")
	}
	return name
}
