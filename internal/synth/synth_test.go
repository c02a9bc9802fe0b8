package synth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/image-api-stack-go/internal/access"
	"github.com/lex00/image-api-stack-go/internal/stack"
	"github.com/lex00/image-api-stack-go/internal/template"
)

func declare(t *testing.T, keys ...string) *stack.Declaration {
	t.Helper()
	creds := make([]access.Credential, len(keys))
	for i, k := range keys {
		creds[i] = access.Credential(k)
	}
	decl, err := stack.Assemble(stack.DefaultConfig(), creds)
	require.NoError(t, err)
	return decl
}

func countType(res map[string]string, typ string) int {
	n := 0
	for _, v := range res {
		if v == typ {
			n++
		}
	}
	return n
}

func TestTemplate_SingleKey(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)
	require.True(t, result.Success)

	types := map[string]string{}
	for id, r := range result.Template.Resources {
		types[id] = r.Type
	}

	assert.Equal(t, 1, countType(types, "AWS::ApiGateway::RestApi"))
	assert.Equal(t, 2, countType(types, "AWS::ApiGateway::Resource"))
	assert.Equal(t, 2, countType(types, "AWS::ApiGateway::Method"))
	assert.Equal(t, 2, countType(types, "AWS::Lambda::Function"))
	assert.Equal(t, 2, countType(types, "AWS::Lambda::Permission"))
	assert.Equal(t, 2, countType(types, "AWS::Logs::LogGroup"))
	assert.Equal(t, 2, countType(types, "AWS::IAM::Role"))
	assert.Equal(t, 1, countType(types, "AWS::ApiGateway::UsagePlan"))
	assert.Equal(t, 1, countType(types, "AWS::ApiGateway::ApiKey"))
	assert.Equal(t, 1, countType(types, "AWS::ApiGateway::UsagePlanKey"))

	key := result.Template.Resources["DevApiKey0"]
	assert.Equal(t, "DevApiKey-0", key.Properties["Name"])
	assert.Equal(t, "k1", key.Properties["Value"])
	assert.Equal(t, true, key.Properties["Enabled"])

	attach := result.Template.Resources["UsagePlanKeyDevApiKey0"]
	assert.Equal(t, map[string]any{"Ref": "DevApiKey0"}, attach.Properties["KeyId"])
	assert.Equal(t, map[string]any{"Ref": "UsagePlan"}, attach.Properties["UsagePlanId"])
	assert.Equal(t, "API_KEY", attach.Properties["KeyType"])
}

func TestTemplate_UsagePlanLimits(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)

	plan := result.Template.Resources[UsagePlan].Properties
	assert.Equal(t, "UsagePlan", plan["UsagePlanName"])
	assert.Equal(t, map[string]any{"Limit": float64(1000), "Period": "DAY"}, plan["Quota"])
	assert.Equal(t, map[string]any{"BurstLimit": float64(10), "RateLimit": float64(5)}, plan["Throttle"])

	stages := plan["ApiStages"].([]any)
	require.Len(t, stages, 1)
	assert.Equal(t, map[string]any{"Ref": Stage}, stages[0].(map[string]any)["Stage"])
}

func TestTemplate_ThreeKeysOnePlan(t *testing.T) {
	result, err := Template(declare(t, "k1", "k2", "k3"))
	require.NoError(t, err)

	res := result.Template.Resources
	for i, want := range []string{"k1", "k2", "k3"} {
		id := fmt.Sprintf("DevApiKey%d", i)
		require.Contains(t, res, id)
		assert.Equal(t, fmt.Sprintf("DevApiKey-%d", i), res[id].Properties["Name"])
		assert.Equal(t, want, res[id].Properties["Value"])
		assert.Equal(t, map[string]any{"Ref": UsagePlan}, res["UsagePlanKey"+id].Properties["UsagePlanId"])
	}

	plans := 0
	for _, r := range res {
		if r.Type == "AWS::ApiGateway::UsagePlan" {
			plans++
		}
	}
	assert.Equal(t, 1, plans)
}

func TestTemplate_DuplicateCredentials(t *testing.T) {
	result, err := Template(declare(t, "same", "same"))
	require.NoError(t, err)

	res := result.Template.Resources
	assert.Equal(t, "same", res["DevApiKey0"].Properties["Value"])
	assert.Equal(t, "same", res["DevApiKey1"].Properties["Value"])
}

func TestTemplate_EveryMethodRequiresKey(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)

	var methods int
	for id, r := range result.Template.Resources {
		if r.Type != "AWS::ApiGateway::Method" {
			continue
		}
		methods++
		assert.Equal(t, true, r.Properties["ApiKeyRequired"], id)
		integration := r.Properties["Integration"].(map[string]any)
		assert.Equal(t, "AWS_PROXY", integration["Type"], id)
		assert.Equal(t, "POST", integration["IntegrationHttpMethod"], id)
	}
	assert.Equal(t, 2, methods)
}

func TestTemplate_NestedPath(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)
	res := result.Template.Resources

	outer := res["ApiResourceApi"].Properties
	assert.Equal(t, "api", outer["PathPart"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"Api", "RootResourceId"}}, outer["ParentId"])

	inner := res["ApiResourceApiImage"].Properties
	assert.Equal(t, "image", inner["PathPart"])
	assert.Equal(t, map[string]any{"Ref": "ApiResourceApi"}, inner["ParentId"])

	assert.Equal(t, map[string]any{"Ref": "ApiResourceApiImage"}, res["ApiImageGET"].Properties["ResourceId"])
	assert.Equal(t, map[string]any{"Ref": "ApiResourceApiImage"}, res["ApiImagePOST"].Properties["ResourceId"])
}

func TestTemplate_HandlerProfile(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)
	res := result.Template.Resources

	for _, prefix := range []string{"GetImage", "PostImage"} {
		fn := res[prefix+"Function"]
		assert.Equal(t, float64(128), fn.Properties["MemorySize"], prefix)
		assert.Equal(t, float64(180), fn.Properties["Timeout"], prefix)
		assert.Equal(t, "provided.al2", fn.Properties["Runtime"], prefix)
		assert.Equal(t, "bootstrap", fn.Properties["Handler"], prefix)
		assert.Equal(t, map[string]any{"Mode": "Active"}, fn.Properties["TracingConfig"], prefix)
		assert.Equal(t, []string{prefix + "LogGroup"}, fn.DependsOn, prefix)

		lg := res[prefix+"LogGroup"]
		assert.Equal(t, float64(5), lg.Properties["RetentionInDays"], prefix)

		perm := res[prefix+"Permission"]
		assert.Equal(t, "apigateway.amazonaws.com", perm.Properties["Principal"], prefix)
	}

	code := res["GetImageFunction"].Properties["Code"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": AssetBucketParameter}, code["S3Bucket"])
	assert.Equal(t, "image-processing/get_image.zip", code["S3Key"])
}

func TestTemplate_DeploymentAfterMethods(t *testing.T) {
	result, err := Template(declare(t, "k1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ApiImageGET", "ApiImagePOST"}, result.Template.Resources[Deployment].DependsOn)

	pos := map[string]int{}
	for i, id := range result.Resources {
		pos[id] = i
	}
	assert.Len(t, result.Resources, len(result.Template.Resources))
	assert.Less(t, pos["ApiImageGET"], pos[Deployment])
	assert.Less(t, pos["ApiImagePOST"], pos[Deployment])
	assert.Less(t, pos[Deployment], pos[Stage])
	assert.Less(t, pos[Stage], pos[UsagePlan])
	assert.Less(t, pos[UsagePlan], pos["UsagePlanKeyDevApiKey0"])
	assert.Less(t, pos["DevApiKey0"], pos["UsagePlanKeyDevApiKey0"])
}

func TestTemplate_OutputsAndParameters(t *testing.T) {
	cfg := stack.DefaultConfig()
	cfg.AssetBucket = "my-assets"
	decl, err := stack.Assemble(cfg, []access.Credential{"k1"})
	require.NoError(t, err)

	result, err := Template(decl)
	require.NoError(t, err)

	assert.Equal(t, "my-assets", result.Template.Parameters[AssetBucketParameter].Default)
	require.Contains(t, result.Template.Outputs, EndpointOutput)
	assert.Contains(t, result.Template.Outputs[EndpointOutput].Value, "Fn::Join")
}

func TestTemplate_NoCredentials(t *testing.T) {
	decl := declare(t, "k1")
	decl.Policy.Keys = nil

	result, err := Template(decl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, access.ErrNoCredentials))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Template.Resources)
}

func TestTemplate_Deterministic(t *testing.T) {
	render := func() string {
		result, err := Template(declare(t, "k1", "k2", "k3"))
		require.NoError(t, err)
		data, err := template.ToJSON(&result.Template)
		require.NoError(t, err)
		return string(data)
	}
	first := render()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render())
	}
}

func TestIDs(t *testing.T) {
	decl := declare(t, "k1")
	assert.Equal(t, "ApiImageGET", MethodID(decl.Routes.Routes[0]))
	assert.Equal(t, "ApiImagePOST", MethodID(decl.Routes.Routes[1]))
	assert.Equal(t, "GetImage", HandlerID(decl.Routes.Routes[0].Target.Operation))
	assert.Equal(t, "DevApiKey0", KeyID(decl.Policy.Keys[0]))

	tests := map[string]string{
		"get_image": "GetImage",
		"v1":        "V1",
		"my-path":   "MyPath",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, pascal(in), in)
	}
}
