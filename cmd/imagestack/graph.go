package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/image-api-stack-go/internal/graph"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var (
		src               sourceFlags
		outputFormat      string
		includeParameters bool
		cluster           bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a graph of the stack topology",
		Long: `Generate a DOT or Mermaid graph of the synthesized resources and their references.

The output can be rendered with Graphviz:
    imagestack graph --keys k1 | dot -Tpng -o stack.png

Or used in GitHub markdown (Mermaid format):
    imagestack graph --keys k1 -f mermaid

Examples:
    imagestack graph --ssm
    imagestack graph --keys k1 -p              # include parameters
    imagestack graph --keys k1 -c              # cluster by service`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := graph.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			result, err := synthesize(cmd.Context(), opts, &src)
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:            format,
				IncludeParameters: includeParameters,
				ClusterByService:  cluster,
			}
			if err := gen.Generate(&result.Template, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("writing graph: %w", err)
			}
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&cluster, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
