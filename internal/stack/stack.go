// Package stack assembles the image API stack from a credential list.
//
// Assemble is a pure function: the same config and credentials always yield
// an equal Declaration, and a failed call has no side effects.
package stack

import (
	"fmt"

	"github.com/lex00/image-api-stack-go/internal/access"
	"github.com/lex00/image-api-stack-go/internal/compute"
	"github.com/lex00/image-api-stack-go/internal/routes"
)

// Declaration is the complete stack handed to synthesis.
type Declaration struct {
	Config Config
	Policy access.Policy
	Routes routes.Table
}

// Assemble builds the access policy and the route table and binds the policy's
// key requirement onto every route. A *access.NoCredentialsError from the
// policy builder is returned unchanged.
func Assemble(cfg Config, creds []access.Credential) (*Declaration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := access.Build(creds)
	if err != nil {
		return nil, err
	}

	table, err := routes.Build(routes.Config{Segments: cfg.Path})
	if err != nil {
		return nil, fmt.Errorf("building routes: %w", err)
	}

	return &Declaration{
		Config: cfg,
		Policy: *policy,
		Routes: table.Protect(policy.RequireKeyOnRoutes),
	}, nil
}

// Targets returns the compute target of every route, in route order.
func (d *Declaration) Targets() []compute.Target {
	targets := make([]compute.Target, 0, len(d.Routes.Routes))
	for _, r := range d.Routes.Routes {
		targets = append(targets, r.Target)
	}
	return targets
}
