package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

const EnvProduction = "production"

type Config struct {
	Env      string `env:"GO_ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"7070"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"familynotes.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Exactly one of these selects how bearer tokens are verified.
	JWTSecret string `env:"JWT_SECRET"`
	JWKSURL   string `env:"JWKS_URL"`

	AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-2"`
	S3Bucket    string `env:"S3_BUCKET_NAME"`
	S3Region    string `env:"AWS_S3_REGION"`
	SSMPrefix   string `env:"SSM_PREFIX" envDefault:"/familynotes/prod/"`
	SnowflakeID int64  `env:"SNOWFLAKE_NODE" envDefault:"1"`
	BodyLimit   string `env:"BODY_LIMIT" envDefault:"2M"`

	MaxRepresentatives    int           `env:"MAX_REPRESENTATIVES" envDefault:"3"`
	InvitationTTL         time.Duration `env:"INVITATION_TTL" envDefault:"168h"`
	InvitationRetention   time.Duration `env:"INVITATION_RETENTION" envDefault:"720h"`
	PurgeRecoveryInterval time.Duration `env:"PURGE_RECOVERY_INTERVAL" envDefault:"5m"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// StorageRegion falls back to the general AWS region.
func (c *Config) StorageRegion() string {
	if c.S3Region != "" {
		return c.S3Region
	}
	return c.AWSRegion
}

// Load fills the process environment from SSM in production or from .env
// otherwise, then parses it.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("GO_ENV") == EnvProduction {
		prefix := os.Getenv("SSM_PREFIX")
		if prefix == "" {
			prefix = "/familynotes/prod/"
		}

		if err := loadProdEnv(ctx, prefix); err != nil {
			return nil, err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.JWTSecret == "" && c.JWKSURL == "" {
		return errors.New("one of JWT_SECRET or JWKS_URL is required")
	}

	if c.MaxRepresentatives <= 0 {
		return fmt.Errorf("MAX_REPRESENTATIVES must be positive, got %d", c.MaxRepresentatives)
	}
	return nil
}

// loadProdEnv exports every parameter under 'prefix' as an environment
// variable named after the rest of its path.
func loadProdEnv(ctx context.Context, prefix string) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(regionOr(os.Getenv("AWS_REGION"), "us-east-2")))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("unable to load prod environment: %w", err)
		}

		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), prefix)
			if err = os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return fmt.Errorf("unable to set environment variable %s: %w", key, err)
			}
			loaded++
		}
	}

	log.Debugf("loaded %d prod environment variables", loaded)
	return nil
}

func regionOr(region, fallback string) string {
	if region == "" {
		return fallback
	}
	return region
}

// ParseLogLevel maps LOG_LEVEL onto gommon levels, defaulting to INFO.
func ParseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
