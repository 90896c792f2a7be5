// Package naming provides consistent naming functions for stacks and the
// bookkeeping objects derived from them.
//
// Stack names are built from the deployment's logical name (prefix,
// environment, component) and normalised to lowercase alphanumerics joined
// by single hyphens, so the same inputs always yield the same stack and the
// result is safe in file paths, object keys and URLs.
package naming
