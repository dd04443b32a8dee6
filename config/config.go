package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"os"
	"strings"
)

type Config struct {
	// Destination of every artifact.
	Bucket    string
	KeyPrefix string

	AWSProfile string

	// Set by the Lambda runtime; empty when run locally.
	LambdaFunctionName string

	Environment string
	LogLevel    string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Bucket:             getEnv("BUCKET", "wrt-bkt1"),
		KeyPrefix:          strings.Trim(getEnv("KEY_PREFIX", "snowflake"), "/"),
		AWSProfile:         os.Getenv("AWS_PROFILE"),
		LambdaFunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(strings.TrimSpace(c.Bucket)) == 0 {
		return errors.New("BUCKET must not be empty")
	}

	_, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "LOG_LEVEL")
	}

	return nil
}

func (c *Config) IsLambda() bool {
	return len(c.LambdaFunctionName) > 0
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds a JSON logger in production and a console logger
// everywhere else, both at LogLevel.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	return logger, errors.WithStack(err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
