package providers

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/providers/ollama"
	"github.com/meysamhadeli/loopai/providers/openai"
	contracts2 "github.com/meysamhadeli/loopai/token_management/contracts"
)

// ChatProviderFactory creates the chat provider named in the configuration.
func ChatProviderFactory(config *AIProviderConfig, tokenManagement contracts2.ITokenManagement) (contracts.IChatAIProvider, error) {
	switch strings.ToLower(config.Provider) {
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	case "openai":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			ApiKey:          config.ApiKey,
			Model:           config.Model,
			Temperature:     config.Temperature,
			ReasoningEffort: config.ReasoningEffort,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
