package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnamSon/gformfiller/pkg/types"
)

type capturedRequest struct {
	Model       string                   `json:"model"`
	Stream      bool                     `json:"stream"`
	Temperature *float64                 `json:"temperature"`
	Messages    []map[string]interface{} `json:"messages"`
}

func sseServer(t *testing.T, lines []string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n\n", l)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	_, err := NewProvider("")
	require.Error(t, err)
}

func TestNewProviderEnvFallbacks(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	t.Setenv(BaseURLEnv, "http://localhost:9999/v1/")

	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1", p.GetBaseURL())
	assert.Equal(t, DefaultModel, p.GetModel())
	assert.Equal(t, "openai", p.GetModelInfo().Provider)
	assert.Equal(t, "http://localhost:9999/v1", p.GetModelInfo().Metadata["base_url"])
}

func TestComplete(t *testing.T) {
	var got capturedRequest
	srv := sseServer(t, []string{
		": keep-alive",
		`data: {"choices":[{"delta":{"role":"assistant","content":"Jane"}}]}`,
		`data: not-json`,
		`data: {"choices":[{"delta":{"content":"\n\n42"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		"data: [DONE]",
	}, &got)

	p, err := NewProvider("test-key", WithBaseURL(srv.URL), WithModel("gpt-test"), WithTemperature(0))
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*types.Message{
		types.NewSystemMessage("rules"),
		types.NewUserMessage("context"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "Jane\n\n42", msg.Content)

	assert.Equal(t, "gpt-test", got.Model)
	assert.True(t, got.Stream)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.0, *got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0]["role"])
	assert.Equal(t, "user", got.Messages[1]["role"])
}

func TestCompleteStreamError(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"error":{"message":"quota exceeded"}}`,
	}, nil)

	p, err := NewProvider("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestConvertToOpenAIMessages(t *testing.T) {
	out := convertToOpenAIMessages([]*types.Message{
		types.NewSystemMessage("s"),
		types.NewAssistantMessage("a"),
		{Role: "tool", Content: "x"},
	})
	require.Len(t, out, 3)
	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfAssistant)
	assert.NotNil(t, out[2].OfUser)
}
