package config

import (
	"fmt"
	"os"

	"github.com/EnamSon/gformfiller/pkg/llm/openai"
)

// BuildProvider creates an LLM provider based on configuration precedence:
// CLI flags > Environment variables > Config file > Defaults
func BuildProvider(cliModel, cliBaseURL, cliAPIKey string) (*openai.Provider, error) {
	finalModel := cliModel
	finalBaseURL := cliBaseURL
	finalAPIKey := cliAPIKey

	if finalAPIKey == "" {
		finalAPIKey = os.Getenv(openai.APIKeyEnv)
	}
	if finalBaseURL == "" {
		finalBaseURL = os.Getenv(openai.BaseURLEnv)
	}

	var temperature float64
	llmConfigFromFile := GetLLM()
	if llmConfigFromFile != nil {
		if finalModel == "" {
			finalModel = llmConfigFromFile.GetModel()
		}
		if finalBaseURL == "" {
			finalBaseURL = llmConfigFromFile.GetBaseURL()
		}
		if finalAPIKey == "" {
			finalAPIKey = llmConfigFromFile.GetAPIKey()
		}
		temperature = llmConfigFromFile.GetTemperature()
	}

	if finalModel == "" {
		finalModel = openai.DefaultModel
	}

	if finalAPIKey == "" {
		return nil, fmt.Errorf("API key is required. Set %s, use --api-key, or set llm.api_key in the config file", openai.APIKeyEnv)
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(finalModel),
	}
	if temperature > 0 {
		providerOpts = append(providerOpts, openai.WithTemperature(temperature))
	}
	if finalBaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(finalBaseURL))
	}

	provider, err := openai.NewProvider(finalAPIKey, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return provider, nil
}
