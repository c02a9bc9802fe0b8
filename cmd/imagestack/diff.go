package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/image-api-stack-go/internal/differ"
)

func newDiffCmd(opts *rootOptions) *cobra.Command {
	var (
		src           sourceFlags
		outputFormat  string
		ignoreOrder   bool
		exitOnChanges bool
	)

	cmd := &cobra.Command{
		Use:   "diff <previous-template>",
		Short: "Compare the synthesized template with a previous one",
		Long: `Diff synthesizes the stack and compares it with a JSON or YAML template on disk.

Changes are reported per resource as property paths. Credential values are
never printed.

Examples:
    imagestack diff deployed.json --ssm
    imagestack diff deployed.yaml --keys k1,k2 -f json
    imagestack diff deployed.json --keys k1 --exit-code`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := synthesize(cmd.Context(), opts, &src)
			if err != nil {
				return err
			}

			diff, err := differ.CompareFile(args[0], &result.Template, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}

			if err := writeDiff(cmd.OutOrStdout(), diff, outputFormat); err != nil {
				return err
			}
			if exitOnChanges && !diff.Empty() {
				return fmt.Errorf("templates differ: %d resource change(s)", diff.Summary.Total)
			}
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.Flags().BoolVar(&exitOnChanges, "exit-code", false, "Exit with status 1 when the templates differ")

	return cmd
}

func writeDiff(w io.Writer, diff *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff     any      `json:"diff"`
			Summary  any      `json:"summary"`
			Template []string `json:"template,omitempty"`
		}{diff.Diff, diff.Summary, diff.Template}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if diff.Empty() {
		_, err := fmt.Fprintln(w, "No differences")
		return err
	}

	for _, e := range diff.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range diff.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range diff.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
		for _, c := range e.Changes {
			fmt.Fprintf(w, "    %s\n", c)
		}
	}
	for _, c := range diff.Template {
		fmt.Fprintf(w, "~ %s\n", c)
	}
	_, err := fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
		diff.Summary.Added, diff.Summary.Removed, diff.Summary.Modified)
	return err
}
