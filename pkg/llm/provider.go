// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	    openai.WithTemperature(0),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage("Answer briefly."),
//	    types.NewUserMessage("Hello!"),
//	})
package llm

import (
	"context"

	"github.com/EnamSon/gformfiller/pkg/types"
)

// Provider defines the interface for LLM integrations.
type Provider interface {
	// StreamCompletion sends messages and streams back response chunks.
	//
	// The channel is closed when streaming completes or fails. Errors that
	// happen after the stream started arrive as chunks with Error set; the
	// returned error only covers failures to start the request.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages and returns the accumulated response.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}
