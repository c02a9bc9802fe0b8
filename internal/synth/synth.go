// Package synth turns a stack declaration into a CloudFormation template.
//
// Logical IDs are derived from the declaration alone, so the same declaration
// always synthesizes to the same template.
package synth

import (
	"fmt"
	"strings"
	"unicode"

	imagestack "github.com/lex00/image-api-stack-go"
	"github.com/lex00/image-api-stack-go/internal/access"
	"github.com/lex00/image-api-stack-go/internal/compute"
	"github.com/lex00/image-api-stack-go/internal/routes"
	"github.com/lex00/image-api-stack-go/internal/stack"
	"github.com/lex00/image-api-stack-go/internal/template"
	. "github.com/lex00/image-api-stack-go/intrinsics"
	"github.com/lex00/image-api-stack-go/resources/apigateway"
	"github.com/lex00/image-api-stack-go/resources/iam"
	"github.com/lex00/image-api-stack-go/resources/lambda"
	"github.com/lex00/image-api-stack-go/resources/logs"
)

// Fixed logical IDs.
const (
	AssetBucketParameter = "AssetBucket"
	RestAPI              = "Api"
	Deployment           = "ApiDeployment"
	Stage                = "ApiStage"
	UsagePlan            = "UsagePlan"
	EndpointOutput       = "ApiEndpoint"
)

// Template synthesizes decl. A failed synthesis returns a result with
// Success false and the errors, along with a non-nil error.
func Template(decl *stack.Declaration) (*imagestack.SynthResult, error) {
	b, err := Builder(decl)
	if err != nil {
		return failed(err), err
	}

	tmpl, err := b.Build()
	if err != nil {
		return failed(err), err
	}
	order, err := b.Order()
	if err != nil {
		return failed(err), err
	}

	return &imagestack.SynthResult{
		Success:   true,
		Template:  *tmpl,
		Resources: order,
	}, nil
}

func failed(err error) *imagestack.SynthResult {
	return &imagestack.SynthResult{Success: false, Errors: strings.Split(err.Error(), "\n")}
}

// Builder registers every resource of decl on a new template builder.
func Builder(decl *stack.Declaration) (*template.Builder, error) {
	if decl == nil {
		return nil, fmt.Errorf("synth: nil declaration")
	}
	if len(decl.Policy.Keys) == 0 {
		return nil, &access.NoCredentialsError{}
	}
	cfg := decl.Config

	b := template.NewBuilder(cfg.Description)

	asset := imagestack.Parameter{
		Type:        "String",
		Description: "S3 bucket holding the packaged image-processing handlers",
	}
	if cfg.AssetBucket != "" {
		asset.Default = cfg.AssetBucket
	}
	b.AddParameter(AssetBucketParameter, asset)

	b.AddResource(RestAPI, apigateway.RestApi{
		Name:             cfg.APIName,
		Description:      cfg.Description,
		BinaryMediaTypes: []string{"image/*"},
		ApiKeySourceType: "HEADER",
		EndpointConfiguration: &apigateway.RestApi_EndpointConfiguration{
			Types: []string{"EDGE"},
		},
	})

	leaf, err := addPath(b, decl.Routes)
	if err != nil {
		return nil, err
	}

	var methods []string
	for _, r := range decl.Routes.Routes {
		fn := addHandler(b, r.Target)
		id := MethodID(r)
		b.AddResource(id, apigateway.Method{
			RestApiId:         RefTo(RestAPI),
			ResourceId:        RefTo(leaf),
			HttpMethod:        r.Method,
			AuthorizationType: "NONE",
			ApiKeyRequired:    r.APIKeyRequired,
			Integration: &apigateway.Method_Integration{
				Type_:                 "AWS_PROXY",
				IntegrationHttpMethod: "POST",
				Uri:                   LambdaIntegrationURI(fn),
			},
			OperationName: r.Target.Operation.String(),
		})
		methods = append(methods, id)
	}

	b.AddResource(Deployment, apigateway.Deployment{
		RestApiId:   RefTo(RestAPI),
		Description: cfg.Description,
	}, methods...)

	b.AddResource(Stage, apigateway.Stage{
		RestApiId:      RefTo(RestAPI),
		DeploymentId:   RefTo(Deployment),
		StageName:      cfg.StageName,
		TracingEnabled: true,
	})

	addAccess(b, decl.Policy)

	b.AddOutput(EndpointOutput, imagestack.Output{
		Description: "Invoke URL of the image API stage",
		Value: Join{Delimiter: "", Values: []any{
			"https://",
			RefTo(RestAPI),
			".execute-api.",
			AWS_REGION,
			".",
			AWS_URL_SUFFIX,
			"/",
			RefTo(Stage),
			decl.Routes.Routes[0].Path(),
		}},
	})

	return b, nil
}

// addPath adds one API Gateway resource per path segment, each nested under
// the previous one, and returns the logical ID of the innermost.
func addPath(b *template.Builder, table routes.Table) (string, error) {
	if len(table.Routes) == 0 {
		return "", fmt.Errorf("synth: route table is empty")
	}
	segments := table.Routes[0].Segments

	var parent any = GetAtt{LogicalName: RestAPI, Attribute: "RootResourceId"}
	id := "ApiResource"
	for _, s := range segments {
		id += pascal(s)
		b.AddResource(id, apigateway.Resource{
			RestApiId: RefTo(RestAPI),
			ParentId:  parent,
			PathPart:  s,
		})
		parent = RefTo(id)
	}
	return id, nil
}

// addHandler adds the function, its role, log group and invoke permission,
// and returns the function's logical ID.
func addHandler(b *template.Builder, t compute.Target) string {
	prefix := HandlerID(t.Operation)
	fnID := prefix + "Function"
	roleID := prefix + "Role"
	logID := prefix + "LogGroup"
	name := "${AWS::StackName}-" + strings.ReplaceAll(t.Operation.String(), "_", "-")

	b.AddResource(logID, logs.LogGroup{
		LogGroupName:    Sub{String: "/aws/lambda/" + name},
		RetentionInDays: t.Profile.LogRetentionDays,
	})

	b.AddResource(roleID, iam.Role{
		AssumeRolePolicyDocument: NewPolicyDocument(PolicyStatement{
			Effect:    "Allow",
			Principal: ServicePrincipal{"lambda.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}),
		Policies: []iam.Role_Policy{
			{
				PolicyName: "logs",
				PolicyDocument: NewPolicyDocument(PolicyStatement{
					Effect:   "Allow",
					Action:   []string{"logs:CreateLogStream", "logs:PutLogEvents"},
					Resource: Arn(logID),
				}),
			},
			{
				PolicyName: "xray",
				PolicyDocument: NewPolicyDocument(PolicyStatement{
					Effect:   "Allow",
					Action:   []string{"xray:PutTraceSegments", "xray:PutTelemetryRecords"},
					Resource: "*",
				}),
			},
		},
	})

	fn := lambda.Function{
		FunctionName: Sub{String: name},
		Runtime:      t.Runtime,
		Handler:      t.Handler,
		Code: lambda.Function_Code{
			S3Bucket: RefTo(AssetBucketParameter),
			S3Key:    t.ArtifactKey(),
		},
		Role:       Arn(roleID),
		MemorySize: t.Profile.MemoryMB,
		Timeout:    t.Profile.TimeoutSeconds(),
	}
	if t.Profile.Tracing {
		fn.TracingConfig = &lambda.Function_TracingConfig{Mode: "Active"}
	}
	b.AddResource(fnID, fn, logID)

	b.AddResource(prefix+"Permission", lambda.Permission{
		FunctionName: RefTo(fnID),
		Action:       "lambda:InvokeFunction",
		Principal:    "apigateway.amazonaws.com",
		SourceArn:    ExecuteAPIArn(RestAPI),
	})

	return fnID
}

// addAccess adds the usage plan, one API key per credential and the key
// attachments.
func addAccess(b *template.Builder, policy access.Policy) {
	plan := policy.Plan
	b.AddResource(UsagePlan, apigateway.UsagePlan{
		UsagePlanName: plan.Name,
		ApiStages: []apigateway.UsagePlan_ApiStage{
			{ApiId: RefTo(RestAPI), Stage: RefTo(Stage)},
		},
		Quota: &apigateway.UsagePlan_QuotaSettings{
			Limit:  plan.Quota.Limit,
			Period: string(plan.Quota.Period),
		},
		Throttle: &apigateway.UsagePlan_ThrottleSettings{
			BurstLimit: plan.Throttle.BurstLimit,
			RateLimit:  plan.Throttle.RateLimit,
		},
	})

	for _, k := range policy.Keys {
		keyID := KeyID(k)
		b.AddResource(keyID, apigateway.ApiKey{
			Name:    k.Name,
			Enabled: true,
			Value:   string(k.Credential),
		})
		b.AddResource("UsagePlanKey"+keyID, apigateway.UsagePlanKey{
			KeyId:       RefTo(keyID),
			KeyType:     "API_KEY",
			UsagePlanId: RefTo(UsagePlan),
		})
	}
}

// HandlerID is the logical ID prefix of an operation's resources, e.g. GetImage.
func HandlerID(op compute.Operation) string {
	return pascal(op.String())
}

// MethodID is the logical ID of a route's method, e.g. ApiImageGET.
func MethodID(r routes.Route) string {
	var sb strings.Builder
	for _, s := range r.Segments {
		sb.WriteString(pascal(s))
	}
	sb.WriteString(r.Method)
	return sb.String()
}

// KeyID is the logical ID of an access key, e.g. DevApiKey0.
func KeyID(k access.AccessKey) string {
	return pascal(k.Name)
}

// pascal drops non-alphanumeric characters and upper-cases the letter after
// each one: get_image becomes GetImage.
func pascal(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) || r > unicode.MaxASCII {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
