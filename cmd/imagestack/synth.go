package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/template"
)

func newSynthCmd(opts *rootOptions) *cobra.Command {
	var (
		src          sourceFlags
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the CloudFormation template",
		Long: `Synth builds the stack from the configured API keys and prints the template.

Examples:
    imagestack synth --ssm
    imagestack synth --keys k1,k2 -f yaml
    imagestack synth --keys-file keys.txt -o template.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := synthesize(cmd.Context(), opts, &src)
			if err != nil && result == nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), result, outputFormat, outputFile)
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// outputResult writes the template of a successful result, or the errors of a
// failed one to stderr.
func outputResult(w io.Writer, result *imagestack.SynthResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("synth failed")
	}

	data, err := render(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	return os.WriteFile(outputFile, data, 0644)
}

func render(tmpl *imagestack.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
