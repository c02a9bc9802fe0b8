// Package lambda provides CloudFormation resource types for AWS Lambda.
package lambda

// Function represents AWS::Lambda::Function.
type Function struct {
	FunctionName  any                     `json:"FunctionName,omitempty"`
	Description   string                  `json:"Description,omitempty"`
	Runtime       string                  `json:"Runtime,omitempty"`
	Handler       string                  `json:"Handler,omitempty"`
	Architectures []string                `json:"Architectures,omitempty"`
	Code          Function_Code           `json:"Code"`
	Role          any                     `json:"Role"`
	MemorySize    int                     `json:"MemorySize,omitempty"`
	Timeout       int                     `json:"Timeout,omitempty"`
	TracingConfig *Function_TracingConfig `json:"TracingConfig,omitempty"`
	Environment   *Function_Environment   `json:"Environment,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code points at the deployment package.
type Function_Code struct {
	S3Bucket any    `json:"S3Bucket,omitempty"`
	S3Key    any    `json:"S3Key,omitempty"`
	ZipFile  string `json:"ZipFile,omitempty"`
}

// Function_TracingConfig sets X-Ray tracing to Active or PassThrough.
type Function_TracingConfig struct {
	Mode string `json:"Mode"`
}

// Function_Environment holds environment variables for the function.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Permission represents AWS::Lambda::Permission.
type Permission struct {
	FunctionName any    `json:"FunctionName"`
	Action       string `json:"Action"`
	Principal    string `json:"Principal"`
	SourceArn    any    `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Permission) ResourceType() string { return "AWS::Lambda::Permission" }
