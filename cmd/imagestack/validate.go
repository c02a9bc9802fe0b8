package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/image-api-stack-go/internal/validation"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		src         sourceFlags
		ignoreRules []string
		keepFile    bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the synthesized template with cfn-lint-go",
		Long: `Validate synthesizes the stack to a temporary file and runs cfn-lint-go on it.

Warnings are reported but do not fail validation.

Examples:
    imagestack validate --ssm
    imagestack validate --keys k1 --ignore W3005
    imagestack validate --keys k1 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := synthesize(cmd.Context(), opts, &src)
			if err != nil {
				return err
			}

			lint, path, err := validation.Validate(&result.Template, validation.Options{
				IgnoreRules: ignoreRules,
				KeepFile:    keepFile,
			})
			if err != nil {
				return err
			}
			if path != "" {
				zap.L().Info("kept validated template", zap.String("path", path))
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, err := json.MarshalIndent(lint, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				for _, e := range lint.Errors {
					fmt.Fprintf(out, "error: %s\n", e)
				}
				for _, w := range lint.Warnings {
					fmt.Fprintf(out, "warning: %s\n", w)
				}
				for _, i := range lint.Informational {
					fmt.Fprintf(out, "info: %s\n", i)
				}
				if lint.Passed {
					fmt.Fprintf(out, "Template valid (%d resources, %d issue(s))\n", len(result.Template.Resources), lint.TotalIssues())
				}
			}

			if !lint.Passed {
				return fmt.Errorf("validation failed: %d error(s)", len(lint.Errors))
			}
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringSliceVar(&ignoreRules, "ignore", nil, "Rule IDs to ignore (e.g. W3005)")
	cmd.Flags().BoolVar(&keepFile, "keep", false, "Keep the temporary template file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}
