// Command imagestack synthesizes the image processing API as a CloudFormation template.
//
// Usage:
//
//	imagestack synth --ssm -f yaml        Synthesize with keys from SSM
//	imagestack synth --keys k1,k2         Synthesize with keys from flags
//	imagestack graph -f mermaid           Show the resource topology
//	imagestack diff deployed.json         Compare with a previous template
//	imagestack validate                   Lint the synthesized template
//	imagestack watch --keys-file keys     Re-synthesize when keys change
//	imagestack version                    Show version
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/image-api-stack-go/internal/logging"
	"github.com/lex00/image-api-stack-go/internal/stack"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	verbose    bool
	jsonLog    bool
	configFile string
	envFiles   []string
}

// loadConfig returns the stack config from --config, or the defaults.
func (o *rootOptions) loadConfig() (stack.Config, error) {
	if o.configFile == "" {
		return stack.DefaultConfig(), nil
	}
	return stack.LoadConfig(o.configFile)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "imagestack",
		Short: "Synthesize the image processing API stack",
		Long: `imagestack synthesizes the image processing API as a CloudFormation template.

Two Lambda handlers (get_image, post_image) sit behind an API Gateway REST API
at /api/image. Every route requires an API key, and every key is attached to
one shared usage plan. Without at least one key, nothing is synthesized.

    imagestack synth --ssm -f yaml -o template.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.envFiles) > 0 {
				if err := godotenv.Load(opts.envFiles...); err != nil {
					return fmt.Errorf("loading env file: %w", err)
				}
			}

			logOpts := logging.LogOpts{Verbose: opts.verbose}
			if opts.jsonLog {
				logOpts.Encoding = "json"
			}
			logger, err := logOpts.NewLogger()
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			zap.L().Sync() //nolint:errcheck
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&opts.jsonLog, "json-log", false, "Enable JSON logging")
	flags.StringVar(&opts.configFile, "config", "", "Stack config file (YAML)")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "Load environment variables from file(s) before running")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(opts),
		newValidateCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imagestack %s\n", getVersion())
		},
	}
}
