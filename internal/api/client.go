// Package api provides Anthropic Messages API access for maestro's model roles.
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// tracerName identifies spans produced by this package.
const tracerName = "github.com/ShayCichocki/maestro/internal/api"

// ErrNoAPIKey is returned when a direct API client is requested without a key.
var ErrNoAPIKey = errors.New("anthropic api key is required")

// Client wraps the Anthropic SDK client with per-role usage accounting, an optional
// client-side rate limit, and a per-call timeout.
type Client struct {
	inner       anthropic.Client
	bedrock     bool
	usage       *UsageTracker
	limiter     *rate.Limiter
	callTimeout time.Duration
	tracer      trace.Tracer
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// APIKey is the Anthropic API key. Required unless UseAWSBedrock is set.
	APIKey string
	// BaseURL overrides the API endpoint (used by tests and proxies).
	BaseURL string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// RequestsPerMinute caps outgoing calls. Zero disables the limit.
	RequestsPerMinute int
	// CallTimeout bounds every single model call. Zero means no timeout.
	CallTimeout time.Duration
	// Usage receives token counts. A fresh tracker is created when nil, so
	// callers that want totals across clients pass a shared one.
	Usage *UsageTracker
}

// NewClient creates a new Anthropic API client.
// The SDK's automatic retries are disabled: a failed call surfaces immediately
// as a ModelError and the caller decides what happens next.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrNoAPIKey
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	usage := cfg.Usage
	if usage == nil {
		usage = NewUsageTracker()
	}

	c := &Client{
		inner:       anthropic.NewClient(opts...),
		bedrock:     cfg.UseAWSBedrock,
		usage:       usage,
		callTimeout: cfg.CallTimeout,
		tracer:      otel.Tracer(tracerName),
	}

	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return c, nil
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
// Bedrock uses cross-region inference profiles: us.anthropic.{model}-v1:0
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}

	// Might already be Bedrock format or a custom model
	return model
}

// TranslateModel translates a model name for Bedrock if this client uses Bedrock.
func (c *Client) TranslateModel(model string) anthropic.Model {
	if c.bedrock {
		return translateModelForBedrock(anthropic.Model(model))
	}
	return anthropic.Model(model)
}

// Usage returns the token usage recorded by this client.
func (c *Client) Usage() *UsageTracker {
	return c.usage
}
