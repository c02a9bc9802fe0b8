// Package intrinsics provides the CloudFormation intrinsic functions used by
// the image API stack.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "Api"}                    → {"Ref": "Api"}
//	GetAtt{LogicalName: "Api", Attribute: "RootResourceId"}
//	Sub{String: "${AWS::StackName}-get-image"} → {"Fn::Sub": "..."}
//	Join{Delimiter: "", Values: []any{...}}    → {"Fn::Join": ["", [...]]}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap represents Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// RefTo returns a Ref to the given logical ID.
func RefTo(logicalName string) Ref {
	return Ref{LogicalName: logicalName}
}

// Arn returns the Fn::GetAtt Arn attribute of a resource.
func Arn(logicalName string) GetAtt {
	return GetAtt{LogicalName: logicalName, Attribute: "Arn"}
}

// LambdaIntegrationURI builds the API Gateway invocation URI for a Lambda
// proxy integration.
//
//	arn:aws:apigateway:<region>:lambda:path/2015-03-31/functions/<fn-arn>/invocations
func LambdaIntegrationURI(functionLogicalName string) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":apigateway:",
			AWS_REGION,
			":lambda:path/2015-03-31/functions/",
			Arn(functionLogicalName),
			"/invocations",
		},
	}
}

// ExecuteAPIArn returns the execute-api source ARN that matches every stage,
// method and path of a REST API.
func ExecuteAPIArn(restAPILogicalName string) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":execute-api:",
			AWS_REGION,
			":",
			AWS_ACCOUNT_ID,
			":",
			RefTo(restAPILogicalName),
			"/*",
		},
	}
}
