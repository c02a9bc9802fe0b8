package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/credentials"
	"github.com/lex00/image-api-stack-go/internal/stack"
	"github.com/lex00/image-api-stack-go/internal/synth"
)

// sourceFlags select where API key credentials come from. With none set, the
// environment is read.
type sourceFlags struct {
	keys         []string
	keysFile     string
	fromEnv      bool
	ssm          bool
	ssmParameter string
	region       string
}

func addSourceFlags(cmd *cobra.Command, f *sourceFlags) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.keys, "keys", nil, "API key credentials (comma-separated)")
	flags.StringVar(&f.keysFile, "keys-file", "", "File with one API key per line")
	flags.BoolVar(&f.fromEnv, "from-env", false, "Read keys from "+credentials.EnvKeys+" (or "+credentials.EnvSingleKey+")")
	flags.BoolVar(&f.ssm, "ssm", false, "Read keys from the SSM parameter")
	flags.StringVar(&f.ssmParameter, "ssm-parameter", "", "SSM parameter name (default: credential_parameter from config)")
	flags.StringVar(&f.region, "region", "", "AWS region for SSM (default: SDK resolution)")
	cmd.MarkFlagsMutuallyExclusive("keys", "keys-file", "from-env", "ssm")
}

// source builds the selected credential source.
func (f *sourceFlags) source(ctx context.Context, cfg stack.Config) (credentials.Source, error) {
	switch {
	case len(f.keys) > 0:
		return credentials.StaticSource{Values: f.keys}, nil
	case f.keysFile != "":
		return credentials.FileSource{Path: f.keysFile}, nil
	case f.ssm:
		param := f.ssmParameter
		if param == "" {
			param = cfg.CredentialParameter
		}
		return credentials.NewSSMSource(ctx, f.region, param)
	default:
		return credentials.EnvSource{}, nil
	}
}

// synthesize loads the config and credentials and synthesizes the stack. The
// returned result is non-nil whenever synthesis itself ran.
func synthesize(ctx context.Context, opts *rootOptions, f *sourceFlags) (*imagestack.SynthResult, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	src, err := f.source(ctx, cfg)
	if err != nil {
		return nil, err
	}

	creds, err := credentials.LoadRequired(ctx, src)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded credentials", zap.String("source", src.Name()), zap.Int("count", len(creds)))

	decl, err := stack.Assemble(cfg, creds)
	if err != nil {
		return nil, err
	}

	result, err := synth.Template(decl)
	if err != nil {
		return result, fmt.Errorf("synthesis failed: %w", err)
	}
	zap.L().Debug("synthesized template",
		zap.Int("resources", len(result.Template.Resources)),
		zap.Strings("order", result.Resources))
	return result, nil
}
