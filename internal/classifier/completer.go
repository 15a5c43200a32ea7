package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrUnavailable marks a transient provider overload that is worth retrying.
var ErrUnavailable = errors.New("model temporarily unavailable")

// Completer sends a single prompt to a text model and returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter builds a completer. SDK retries are disabled because
// the classifier applies its own retry policy.
func NewAnthropicCompleter(apiKey, model string, maxTokens int) *AnthropicCompleter {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAPIError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty model response")
	}
	return sb.String(), nil
}

func classifyAPIError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusServiceUnavailable, 529:
		return fmt.Errorf("%w: status %d", ErrUnavailable, apiErr.StatusCode)
	case http.StatusBadRequest:
		return fmt.Errorf("invalid request to model api: %w", err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("model api rejected credentials: %w", err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("model api rate limit exceeded: %w", err)
	default:
		return fmt.Errorf("model api error %d: %w", apiErr.StatusCode, err)
	}
}
