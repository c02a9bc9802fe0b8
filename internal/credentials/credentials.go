// Package credentials loads the API key credentials the stack is built from.
//
// Every source yields the same shape: an ordered list of non-empty values.
// Sources never decide what an empty list means; that is left to the access
// policy builder.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lex00/image-api-stack-go/internal/access"
)

// Environment variables read by EnvSource.
const (
	EnvKeys      = "IMAGE_HANDLER_API_KEYS"
	EnvSingleKey = "API_KEY"
)

// Source yields a list of credentials.
type Source interface {
	// Load returns the credentials in source order.
	Load(ctx context.Context) ([]access.Credential, error)
	// Name identifies the source in logs and errors. It never contains a
	// credential value.
	Name() string
}

// Parse splits raw on commas and newlines, trims whitespace and drops empty
// entries. Order and duplicates are preserved.
func Parse(raw string) []access.Credential {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]access.Credential, 0, len(fields))
	for _, f := range fields {
		if v := strings.TrimSpace(f); v != "" {
			out = append(out, access.Credential(v))
		}
	}
	return out
}

// StaticSource returns fixed values, typically from command-line flags.
type StaticSource struct {
	Values []string
}

// Load implements Source.
func (s StaticSource) Load(ctx context.Context) ([]access.Credential, error) {
	return Parse(strings.Join(s.Values, ",")), nil
}

// Name implements Source.
func (s StaticSource) Name() string { return "flags" }

// EnvSource reads IMAGE_HANDLER_API_KEYS, or the single-key API_KEY when the
// former is unset.
type EnvSource struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load implements Source.
func (s EnvSource) Load(ctx context.Context) ([]access.Credential, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvKeys); ok {
		return Parse(v), nil
	}
	if v, ok := lookup(EnvSingleKey); ok {
		return Parse(v), nil
	}
	return nil, nil
}

// Name implements Source.
func (s EnvSource) Name() string { return "env:" + EnvKeys }

// FileSource reads credentials from a local file, one per line or
// comma-separated.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) ([]access.Credential, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return Parse(string(data)), nil
}

// Name implements Source.
func (s FileSource) Name() string { return "file:" + s.Path }

// LoadRequired loads from src and returns a *access.NoCredentialsError naming
// the source when it yields nothing.
func LoadRequired(ctx context.Context, src Source) ([]access.Credential, error) {
	creds, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, &access.NoCredentialsError{Source: src.Name()}
	}
	return creds, nil
}
