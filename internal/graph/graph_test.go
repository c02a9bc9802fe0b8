package graph

import (
	"strings"
	"testing"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/access"
	"github.com/lex00/image-api-stack-go/internal/stack"
	"github.com/lex00/image-api-stack-go/internal/synth"
)

func smallTemplate() *imagestack.Template {
	return &imagestack.Template{
		Parameters: map[string]imagestack.Parameter{
			"AssetBucket": {Type: "String"},
		},
		Resources: map[string]imagestack.ResourceDef{
			"GetImageRole": {Type: "AWS::IAM::Role"},
			"GetImageFunction": {
				Type: "AWS::Lambda::Function",
				Properties: map[string]any{
					"Role": map[string]any{"Fn::GetAtt": []any{"GetImageRole", "Arn"}},
					"Code": map[string]any{"S3Bucket": map[string]any{"Ref": "AssetBucket"}},
				},
			},
			"GetImageLogGroup": {Type: "AWS::Logs::LogGroup"},
			"Rest":             {Type: "AWS::ApiGateway::RestApi"},
			"Deploy": {
				Type:       "AWS::ApiGateway::Deployment",
				Properties: map[string]any{"RestApiId": map[string]any{"Ref": "Rest"}},
				DependsOn:  []string{"GetImageLogGroup"},
			},
		},
	}
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	if err := gen.Generate(smallTemplate(), &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}
	for _, name := range []string{"GetImageRole", "GetImageFunction", "Rest", "Deploy"} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s node", name)
		}
	}
	if !strings.Contains(output, "AWS::Lambda::Function") {
		t.Error("expected CloudFormation type in node label")
	}

	// GetAtt edges are blue, DependsOn edges dashed
	if !strings.Contains(output, "blue") {
		t.Error("expected blue color for GetAtt edge")
	}
	if !strings.Contains(output, "dashed") {
		t.Error("expected dashed DependsOn edge")
	}

	if strings.Contains(output, "AssetBucket") {
		t.Error("parameters should be omitted by default")
	}
}

func TestGenerator_Generate_WithParameters(t *testing.T) {
	gen := &Generator{IncludeParameters: true}
	output, err := gen.GenerateString(smallTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "AssetBucket") {
		t.Error("expected AssetBucket parameter node")
	}
	if !strings.Contains(output, "ellipse") {
		t.Error("expected ellipse shape for parameter")
	}
}

func TestGenerator_Generate_ClusterByService(t *testing.T) {
	gen := &Generator{ClusterByService: true}
	output, err := gen.GenerateString(smallTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "cluster_ApiGateway") {
		t.Errorf("expected ApiGateway cluster, got:\n%s", output)
	}
	// single-resource services are not clustered
	if strings.Contains(output, "cluster_IAM") {
		t.Error("unexpected IAM cluster")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	output, err := gen.GenerateString(smallTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Errorf("expected mermaid graph/flowchart, got:\n%s", output)
	}
	if strings.Contains(output, "digraph") {
		t.Error("expected mermaid format, not DOT")
	}
}

func TestGenerator_SynthesizedStack(t *testing.T) {
	decl, err := stack.Assemble(stack.DefaultConfig(), []access.Credential{"k1", "k2"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	result, err := synth.Template(decl)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	gen := &Generator{ClusterByService: true}
	first, err := gen.GenerateString(&result.Template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"ApiImageGET", "ApiImagePOST", "UsagePlan", "DevApiKey0", "DevApiKey1", "UsagePlanKeyDevApiKey1"} {
		if !strings.Contains(first, name) {
			t.Errorf("expected %s in graph", name)
		}
	}

	second, _ := gen.GenerateString(&result.Template)
	if first != second {
		t.Error("graph output is not deterministic")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatDOT, false},
		{"dot", FormatDOT, false},
		{"Mermaid", FormatMermaid, false},
		{"svg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestService(t *testing.T) {
	if got := Service("AWS::ApiGateway::Method"); got != "ApiGateway" {
		t.Errorf("Service() = %q", got)
	}
	if got := Service("Custom"); got != "Other" {
		t.Errorf("Service() = %q", got)
	}
}
