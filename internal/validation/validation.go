// Package validation runs cfn-lint-go against synthesized templates.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/template"
)

// Result contains the result of running cfn-lint.
type Result struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r Result) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Options configures validation.
type Options struct {
	// IgnoreRules lists rule IDs (e.g. W3005) whose matches are dropped.
	IgnoreRules []string
	// KeepFile leaves the temporary template on disk and reports its path.
	KeepFile bool
}

// Validate writes tmpl to a temporary YAML file and lints it. Credential
// values from ApiKey resources are redacted from every message.
func Validate(tmpl *imagestack.Template, opts Options) (*Result, string, error) {
	data, err := template.ToYAML(tmpl)
	if err != nil {
		return nil, "", fmt.Errorf("serializing template: %w", err)
	}

	dir, err := os.MkdirTemp("", "imagestack-validate-")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp dir: %w", err)
	}
	path := filepath.Join(dir, "template.yaml")
	if !opts.KeepFile {
		defer os.RemoveAll(dir)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, "", fmt.Errorf("writing template: %w", err)
	}

	result, err := RunCfnLint(path, opts)
	if err != nil {
		return nil, "", err
	}

	secrets := credentialValues(tmpl)
	for _, issues := range [][]string{result.Errors, result.Warnings, result.Informational} {
		for i := range issues {
			issues[i] = redact(issues[i], secrets)
		}
	}

	if !opts.KeepFile {
		path = ""
	}
	return result, path, nil
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string, opts Options) (*Result, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &Result{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &Result{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	ignored := make(map[string]bool, len(opts.IgnoreRules))
	for _, id := range opts.IgnoreRules {
		ignored[id] = true
	}

	result := &Result{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		if ignored[match.Rule.ID] {
			continue
		}
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	if len(match.Location.Path) == 0 {
		return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
	}
	parts := make([]string, len(match.Location.Path))
	for i, p := range match.Location.Path {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, strings.Join(parts, "/"))
}

// credentialValues collects the Value of every ApiKey, longest first so a
// value that contains another is redacted whole.
func credentialValues(tmpl *imagestack.Template) []string {
	var out []string
	for _, res := range tmpl.Resources {
		if res.Type != "AWS::ApiGateway::ApiKey" {
			continue
		}
		if v, ok := res.Properties["Value"].(string); ok && v != "" {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}
