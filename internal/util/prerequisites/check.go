// Package prerequisites checks that the client tools the automation engine
// shells out to are installed.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is a binary looked up in PATH.
type Tool struct {
	Name       string
	Required   bool
	Purpose    string
	InstallURL string
}

// EngineTools returns the tools needed to drive stacks.
func EngineTools() []Tool {
	return []Tool{
		{
			Name:       "pulumi",
			Required:   true,
			Purpose:    "runs stack operations for the automation API",
			InstallURL: "https://www.pulumi.com/docs/iac/download-install/",
		},
		{
			Name:       "az",
			Required:   false,
			Purpose:    "provides the Azure CLI login used by the default credential chain",
			InstallURL: "https://learn.microsoft.com/cli/azure/install-azure-cli",
		},
	}
}

// Result is the outcome of looking up one tool.
type Result struct {
	Tool  Tool
	Found bool
	Path  string
}

// Results collects the outcome of a Check.
type Results struct {
	Results []Result
	Missing []Tool
}

// Err returns an error naming every missing required tool, or nil.
func (r *Results) Err() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s, install: %s)", tool.Name, tool.Purpose, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// MissingOptional returns the missing tools that are not required.
func (r *Results) MissingOptional() []Tool {
	var out []Tool
	for _, tool := range r.Missing {
		if !tool.Required {
			out = append(out, tool)
		}
	}
	return out
}

// LookPath resolves a binary name; exec.LookPath in production.
type LookPath func(name string) (string, error)

// Check looks up every tool with lookPath.
func Check(tools []Tool, lookPath LookPath) *Results {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	results := &Results{}
	for _, tool := range tools {
		result := Result{Tool: tool}
		if path, err := lookPath(tool.Name); err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}
		results.Results = append(results.Results, result)
	}
	return results
}

// CheckEngine checks EngineTools against PATH.
func CheckEngine() *Results {
	return Check(EngineTools(), exec.LookPath)
}
