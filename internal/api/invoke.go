package api

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Request is a single role-specific model call.
type Request struct {
	// Role is the model role the call is made for.
	Role models.Role
	// Model is the model name in Anthropic format.
	Model string
	// System is optional side-channel context sent outside the main prompt.
	System string
	// Prompt is the main user message.
	Prompt string
	// MaxTokens bounds the response length.
	MaxTokens int64
}

// Invoke sends one request and returns the concatenated text of the response.
// Every failure is returned as a *ModelError.
func (c *Client) Invoke(ctx context.Context, req Request) (string, error) {
	model := c.TranslateModel(req.Model)

	ctx, span := c.tracer.Start(ctx, "maestro.model.invoke", trace.WithAttributes(
		attribute.String("maestro.role", string(req.Role)),
		attribute.String("maestro.model", string(model)),
		attribute.Int64("maestro.max_tokens", req.MaxTokens),
	))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.fail(span, classifyError(req.Role, err))
		}
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", c.fail(span, classifyError(req.Role, err))
	}

	c.usage.Add(req.Role, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	span.SetAttributes(
		attribute.Int64("maestro.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("maestro.output_tokens", resp.Usage.OutputTokens),
	)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", c.fail(span, classifyError(req.Role, ErrEmptyResponse))
	}

	return text.String(), nil
}

func (c *Client) fail(span trace.Span, err *ModelError) *ModelError {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))
	return err
}
