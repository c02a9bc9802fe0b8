package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/intrinsics"
	"github.com/lex00/image-api-stack-go/resources/apigateway"
	"github.com/lex00/image-api-stack-go/resources/logs"
)

func TestBuild_SingleResource(t *testing.T) {
	b := NewBuilder("test")
	b.AddResource("Api", apigateway.RestApi{Name: "my-api"})

	tmpl, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	assert.Equal(t, "test", tmpl.Description)
	require.Contains(t, tmpl.Resources, "Api")
	assert.Equal(t, "AWS::ApiGateway::RestApi", tmpl.Resources["Api"].Type)
	assert.Equal(t, "my-api", tmpl.Resources["Api"].Properties["Name"])
	assert.Nil(t, tmpl.Parameters)
	assert.Nil(t, tmpl.Outputs)
}

func TestBuild_RefCreatesDependency(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Child", apigateway.Resource{
		RestApiId: intrinsics.RefTo("Api"),
		ParentId:  intrinsics.GetAtt{LogicalName: "Api", Attribute: "RootResourceId"},
		PathPart:  "api",
	})
	b.AddResource("Api", apigateway.RestApi{Name: "x"})

	order, err := b.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"Api", "Child"}, order)

	tmpl, err := b.Build()
	require.NoError(t, err)
	props := tmpl.Resources["Child"].Properties
	assert.Equal(t, map[string]any{"Ref": "Api"}, props["RestApiId"])
}

func TestBuild_SubReferences(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Api", apigateway.RestApi{Name: "x"})
	b.AddResource("Logs", logs.LogGroup{
		LogGroupName: intrinsics.Sub{String: "/aws/${AWS::StackName}/${Api}/${Api.RootResourceId}/${!Literal}"},
	})

	order, err := b.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"Api", "Logs"}, order)
}

func TestBuild_SubLocalVariables(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Logs", logs.LogGroup{
		LogGroupName: intrinsics.SubWithMap{
			String:    "/aws/${Name}",
			Variables: map[string]any{"Name": "fixed"},
		},
	})

	_, err := b.Build()
	assert.NoError(t, err)
}

func TestBuild_PseudoParametersAndParameters(t *testing.T) {
	b := NewBuilder("")
	b.AddParameter("Bucket", imagestack.Parameter{Type: "String"})
	b.AddResource("Logs", logs.LogGroup{
		LogGroupName: intrinsics.Join{Delimiter: "-", Values: []any{intrinsics.AWS_REGION, intrinsics.RefTo("Bucket")}},
	})

	tmpl, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, tmpl.Parameters, "Bucket")
}

func TestBuild_UnknownReference(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Child", apigateway.Resource{RestApiId: intrinsics.RefTo("Missing"), ParentId: "root", PathPart: "x"})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestBuild_UnknownOutputReference(t *testing.T) {
	b := NewBuilder("")
	b.AddOutput("Endpoint", imagestack.Output{Value: intrinsics.RefTo("Missing")})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output Endpoint")
}

func TestBuild_UnknownDependsOn(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Api", apigateway.RestApi{}, "Nope")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
}

func TestBuild_DuplicateAndInvalidIDs(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Api", apigateway.RestApi{})
	b.AddResource("Api", apigateway.RestApi{})
	b.AddParameter("Api", imagestack.Parameter{Type: "String"})
	b.AddResource("not-valid", apigateway.RestApi{})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate logical ID")
	assert.Contains(t, err.Error(), "must be alphanumeric")
}

func TestBuild_DependsOnEmitted(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("Api", apigateway.RestApi{})
	b.AddResource("B", apigateway.Method{RestApiId: intrinsics.RefTo("Api"), HttpMethod: "GET"})
	b.AddResource("A", apigateway.Method{RestApiId: intrinsics.RefTo("Api"), HttpMethod: "POST"})
	b.AddResource("Deploy", apigateway.Deployment{RestApiId: intrinsics.RefTo("Api")}, "B", "A", "B")

	tmpl, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tmpl.Resources["Deploy"].DependsOn)

	order, err := b.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"Api", "A", "B", "Deploy"}, order)
}

func TestTopologicalSort(t *testing.T) {
	order, err := topologicalSort(map[string][]string{
		"C": {"B"},
		"B": {"A"},
		"A": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestTopologicalSort_Cycle(t *testing.T) {
	_, err := topologicalSort(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestBuild_Cycle(t *testing.T) {
	b := NewBuilder("")
	b.AddResource("A", logs.LogGroup{LogGroupName: intrinsics.RefTo("B")})
	b.AddResource("B", logs.LogGroup{LogGroupName: intrinsics.RefTo("A")})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestToJSONAndYAML(t *testing.T) {
	b := NewBuilder("desc")
	b.AddResource("Api", apigateway.RestApi{Name: "x"})
	b.AddOutput("ApiId", imagestack.Output{Value: intrinsics.RefTo("Api")})
	tmpl, err := b.Build()
	require.NoError(t, err)

	data, err := ToJSON(tmpl)
	require.NoError(t, err)
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, "2010-09-09", fromJSON["AWSTemplateFormatVersion"])
	assert.Contains(t, fromJSON["Outputs"], "ApiId")

	data, err = ToYAML(tmpl)
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "desc", fromYAML["Description"])
	assert.Contains(t, fromYAML["Resources"], "Api")
}

func TestBuild_Deterministic(t *testing.T) {
	build := func() []byte {
		b := NewBuilder("d")
		b.AddResource("Api", apigateway.RestApi{Name: "x"})
		b.AddResource("Child", apigateway.Resource{RestApiId: intrinsics.RefTo("Api"), ParentId: "p", PathPart: "a"})
		tmpl, err := b.Build()
		require.NoError(t, err)
		data, err := ToJSON(tmpl)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, string(build()), string(build()))
}

func TestReferences(t *testing.T) {
	value := map[string]any{
		"A": map[string]any{"Ref": "Api"},
		"B": map[string]any{"Fn::GetAtt": []any{"Role", "Arn"}},
		"C": map[string]any{"Fn::Sub": "${AWS::Region}-${Bucket}-${!Skip}"},
		"D": []any{map[string]any{"Ref": "AWS::StackName"}},
	}
	assert.Equal(t, map[string]RefKind{
		"Api":            KindRef,
		"Role":           KindGetAtt,
		"AWS::Region":    KindSub,
		"Bucket":         KindSub,
		"AWS::StackName": KindRef,
	}, References(value))
}
