// Package graph renders the resource topology of a synthesized template as
// DOT or Mermaid.
package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	}
	return "", fmt.Errorf("unknown graph format %q (want dot or mermaid)", s)
}

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeParameters adds template parameters as dashed nodes.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByService groups resources by AWS service (ApiGateway, Lambda, ...).
	ClusterByService bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(tmpl *imagestack.Template, w io.Writer) error {
	graph := g.buildGraph(tmpl)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(tmpl *imagestack.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(tmpl, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(tmpl *imagestack.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedKeys(tmpl.Resources)

	if g.ClusterByService {
		g.addClusteredNodes(graph, tmpl, names)
	} else {
		for _, name := range names {
			graph.Node(name).Label(label(name, tmpl.Resources[name].Type))
		}
	}

	if g.IncludeParameters {
		for _, name := range sortedKeys(tmpl.Parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
		}
	}

	for _, name := range names {
		res := tmpl.Resources[name]
		refs := template.References(res.Properties)

		for _, dep := range sortedKeys(refs) {
			_, isResource := tmpl.Resources[dep]
			_, isParam := tmpl.Parameters[dep]
			if !isResource && !(isParam && g.IncludeParameters) {
				continue
			}
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if refs[dep] == template.KindGetAtt {
				e.Attr("color", "blue")
			}
		}

		for _, dep := range res.DependsOn {
			if _, ok := refs[dep]; ok {
				continue
			}
			if _, ok := tmpl.Resources[dep]; !ok {
				continue
			}
			graph.Edge(graph.Node(name), graph.Node(dep)).Attr("style", "dashed")
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, tmpl *imagestack.Template, names []string) {
	byService := make(map[string][]string)
	for _, name := range names {
		service := Service(tmpl.Resources[name].Type)
		byService[service] = append(byService[service], name)
	}

	for _, service := range sortedKeys(byService) {
		members := byService[service]
		if len(members) == 1 {
			graph.Node(members[0]).Label(label(members[0], tmpl.Resources[members[0]].Type))
			continue
		}
		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			cluster.Node(name).Label(label(name, tmpl.Resources[name].Type))
		}
	}
}

// Service extracts the service from a CloudFormation type.
// e.g., "AWS::ApiGateway::Method" -> "ApiGateway"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func label(name, cfType string) string {
	return name + "\\n[" + cfType + "]"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
