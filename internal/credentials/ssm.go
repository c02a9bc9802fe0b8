package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/lex00/image-api-stack-go/internal/access"
)

// DefaultParameter is the SSM parameter holding comma-separated API keys.
const DefaultParameter = "/image-handler/apikeys"

// ParameterAPI is the subset of the SSM client used by SSMSource.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads a String or SecureString parameter from SSM Parameter Store.
// A missing parameter yields no credentials rather than an error.
type SSMSource struct {
	Client    ParameterAPI
	Parameter string
}

// NewSSMSource creates an SSMSource using the default AWS config chain.
// An empty region leaves region resolution to the SDK.
func NewSSMSource(ctx context.Context, region, parameter string) (*SSMSource, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	if parameter == "" {
		parameter = DefaultParameter
	}
	return &SSMSource{Client: ssm.NewFromConfig(cfg), Parameter: parameter}, nil
}

// Load implements Source.
func (s *SSMSource) Load(ctx context.Context) ([]access.Credential, error) {
	out, err := s.Client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.Parameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading SSM parameter %s: %w", s.Parameter, err)
	}
	if out == nil || out.Parameter == nil {
		return nil, nil
	}
	return Parse(aws.ToString(out.Parameter.Value)), nil
}

// Name implements Source.
func (s *SSMSource) Name() string { return "ssm:" + s.Parameter }
