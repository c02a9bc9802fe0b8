// Package apigateway provides CloudFormation resource types for Amazon API Gateway (REST APIs).
package apigateway

// RestApi represents AWS::ApiGateway::RestApi.
// ApiKeySourceType is HEADER (x-api-key) or AUTHORIZER.
type RestApi struct {
	Name                  any                            `json:"Name,omitempty"`
	Description           any                            `json:"Description,omitempty"`
	BinaryMediaTypes      []string                       `json:"BinaryMediaTypes,omitempty"`
	ApiKeySourceType      string                         `json:"ApiKeySourceType,omitempty"`
	EndpointConfiguration *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r RestApi) ResourceType() string { return "AWS::ApiGateway::RestApi" }

// RestApi_EndpointConfiguration selects EDGE, REGIONAL or PRIVATE endpoints.
type RestApi_EndpointConfiguration struct {
	Types []string `json:"Types,omitempty"`
}

// Resource represents AWS::ApiGateway::Resource, one path part under a parent.
type Resource struct {
	RestApiId any    `json:"RestApiId"`
	ParentId  any    `json:"ParentId"`
	PathPart  string `json:"PathPart"`
}

// ResourceType returns the CloudFormation resource type.
func (r Resource) ResourceType() string { return "AWS::ApiGateway::Resource" }

// Method represents AWS::ApiGateway::Method.
type Method struct {
	RestApiId         any                 `json:"RestApiId"`
	ResourceId        any                 `json:"ResourceId"`
	HttpMethod        string              `json:"HttpMethod"`
	AuthorizationType string              `json:"AuthorizationType"`
	ApiKeyRequired    bool                `json:"ApiKeyRequired"`
	Integration       *Method_Integration `json:"Integration,omitempty"`
	OperationName     string              `json:"OperationName,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Method) ResourceType() string { return "AWS::ApiGateway::Method" }

// Method_Integration configures the backend of a method.
type Method_Integration struct {
	// Type_ is AWS, AWS_PROXY, HTTP, HTTP_PROXY or MOCK.
	Type_                 string `json:"Type"`
	IntegrationHttpMethod string `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any    `json:"Uri,omitempty"`
}

// Deployment represents AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any    `json:"RestApiId"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Deployment) ResourceType() string { return "AWS::ApiGateway::Deployment" }

// Stage represents AWS::ApiGateway::Stage.
type Stage struct {
	RestApiId      any                   `json:"RestApiId"`
	DeploymentId   any                   `json:"DeploymentId"`
	StageName      string                `json:"StageName"`
	TracingEnabled bool                  `json:"TracingEnabled,omitempty"`
	MethodSettings []Stage_MethodSetting `json:"MethodSettings,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Stage) ResourceType() string { return "AWS::ApiGateway::Stage" }

// Stage_MethodSetting applies settings to methods matching a path/verb pattern.
type Stage_MethodSetting struct {
	ResourcePath         string  `json:"ResourcePath"`
	HttpMethod           string  `json:"HttpMethod"`
	MetricsEnabled       bool    `json:"MetricsEnabled,omitempty"`
	ThrottlingBurstLimit int     `json:"ThrottlingBurstLimit,omitempty"`
	ThrottlingRateLimit  float64 `json:"ThrottlingRateLimit,omitempty"`
}

// UsagePlan represents AWS::ApiGateway::UsagePlan.
type UsagePlan struct {
	UsagePlanName any                         `json:"UsagePlanName,omitempty"`
	Description   string                      `json:"Description,omitempty"`
	ApiStages     []UsagePlan_ApiStage        `json:"ApiStages,omitempty"`
	Quota         *UsagePlan_QuotaSettings    `json:"Quota,omitempty"`
	Throttle      *UsagePlan_ThrottleSettings `json:"Throttle,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r UsagePlan) ResourceType() string { return "AWS::ApiGateway::UsagePlan" }

// UsagePlan_ApiStage associates a usage plan with a deployed stage.
type UsagePlan_ApiStage struct {
	ApiId any `json:"ApiId"`
	Stage any `json:"Stage"`
}

// UsagePlan_QuotaSettings caps requests per period (DAY, WEEK or MONTH).
type UsagePlan_QuotaSettings struct {
	Limit  int    `json:"Limit"`
	Period string `json:"Period"`
}

// UsagePlan_ThrottleSettings sets the token bucket for the plan.
type UsagePlan_ThrottleSettings struct {
	BurstLimit int     `json:"BurstLimit"`
	RateLimit  float64 `json:"RateLimit"`
}

// ApiKey represents AWS::ApiGateway::ApiKey.
type ApiKey struct {
	Name        any    `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
	Enabled     bool   `json:"Enabled"`
	Value       any    `json:"Value,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r ApiKey) ResourceType() string { return "AWS::ApiGateway::ApiKey" }

// UsagePlanKey represents AWS::ApiGateway::UsagePlanKey, attaching a key to a plan.
type UsagePlanKey struct {
	KeyId       any    `json:"KeyId"`
	KeyType     string `json:"KeyType"`
	UsagePlanId any    `json:"UsagePlanId"`
}

// ResourceType returns the CloudFormation resource type.
func (r UsagePlanKey) ResourceType() string { return "AWS::ApiGateway::UsagePlanKey" }
