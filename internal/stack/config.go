package stack

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lex00/image-api-stack-go/internal/routes"
)

// Config is the configuration surface of the stack. The shape of the stack is
// fixed; only naming and the route path vary.
type Config struct {
	StackName   string   `yaml:"stack_name"`
	APIName     string   `yaml:"api_name"`
	Description string   `yaml:"description"`
	StageName   string   `yaml:"stage_name"`
	Path        []string `yaml:"path"`
	// AssetBucket is the default of the AssetBucket template parameter.
	AssetBucket string `yaml:"asset_bucket"`
	// CredentialParameter is the SSM parameter holding comma-separated API keys.
	CredentialParameter string `yaml:"credential_parameter"`
}

// DefaultConfig returns the configuration of the image processing stack.
func DefaultConfig() Config {
	return Config{
		StackName:           "ImageProcessingStack",
		APIName:             "ImageProcessing-Api",
		Description:         "ApiGateway for image processing handlers",
		StageName:           "prod",
		Path:                append([]string(nil), routes.DefaultSegments...),
		CredentialParameter: "/image-handler/apikeys",
	}
}

// LoadConfig reads a YAML config file and merges it over DefaultConfig.
// Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports missing or malformed fields.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIName) == "" {
		errs = append(errs, errors.New("api_name is required"))
	}
	if strings.TrimSpace(c.StageName) == "" {
		errs = append(errs, errors.New("stage_name is required"))
	}
	for _, r := range c.StageName {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			errs = append(errs, fmt.Errorf("stage_name %q may only contain letters, digits and underscores", c.StageName))
			break
		}
	}
	if len(c.Path) == 0 {
		errs = append(errs, errors.New("path needs at least one segment"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
