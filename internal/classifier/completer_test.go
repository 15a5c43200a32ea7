package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompleter(t *testing.T, handler http.HandlerFunc) *AnthropicCompleter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &AnthropicCompleter{
		client: anthropic.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		),
		model:     "claude-test",
		maxTokens: 100,
	}
}

func TestAnthropicCompleter_StatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusServiceUnavailable, retryable: true},
		{status: 529, retryable: true},
		{status: http.StatusBadRequest, retryable: false},
		{status: http.StatusUnauthorized, retryable: false},
		{status: http.StatusTooManyRequests, retryable: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"type":"error","error":{"type":"api_error","message":"status %d"}}`, tt.status)
			})

			_, err := c.Complete(context.Background(), "classify this")
			require.Error(t, err)
			assert.Equal(t, tt.retryable, errors.Is(err, ErrUnavailable))
			assert.EqualValues(t, 1, calls.Load())

			var apiErr *anthropic.Error
			if !tt.retryable {
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestAnthropicCompleter_JoinsTextBlocks(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"category\":"},{"type":"text","text":"\"wifi\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":5}}`))
	})

	got, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, `{"category":"wifi"}`, got)
}

func TestAnthropicCompleter_EmptyReply(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[],"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":0}}`))
	})

	_, err := c.Complete(context.Background(), "classify this")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
}
