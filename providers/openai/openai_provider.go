package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/providers/models"
	contracts2 "github.com/meysamhadeli/loopai/token_management/contracts"
)

// OpenAIConfig holds the connection settings for OpenAI and compatible
// backends.
type OpenAIConfig struct {
	BaseURL         string
	ApiKey          string
	Model           string
	Temperature     *float32
	ReasoningEffort *string
	TokenManagement contracts2.ITokenManagement
}

// NewOpenAIChatProvider initializes a new OpenAI chat provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	return &OpenAIConfig{
		BaseURL:         config.BaseURL,
		ApiKey:          config.ApiKey,
		Model:           config.Model,
		Temperature:     config.Temperature,
		ReasoningEffort: config.ReasoningEffort,
		TokenManagement: config.TokenManagement,
	}
}

func (openaiProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var markdownBuffer strings.Builder // Buffer to accumulate content until newline

	go func() {
		defer close(responseChan)

		clientConfig := openai.DefaultConfig(openaiProvider.ApiKey)
		if openaiProvider.BaseURL != "" {
			clientConfig.BaseURL = openaiProvider.BaseURL
		}
		client := openai.NewClientWithConfig(clientConfig)

		request := openai.ChatCompletionRequest{
			Model: openaiProvider.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt},
				{Role: openai.ChatMessageRoleUser, Content: userInput},
			},
			Stream:        true,
			StreamOptions: &openai.StreamOptions{IncludeUsage: true},
		}
		if openaiProvider.Temperature != nil {
			request.Temperature = *openaiProvider.Temperature
		}
		if openaiProvider.ReasoningEffort != nil {
			request.ReasoningEffort = *openaiProvider.ReasoningEffort
		}

		stream, err := client.CreateChatCompletionStream(ctx, request)
		if err != nil {
			responseChan <- models.StreamResponse{Err: classifyError(err)}
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %w", ctx.Err())}
					return
				}
				responseChan <- models.StreamResponse{Err: classifyError(err)}
				return
			}

			// With IncludeUsage the final chunk carries usage and no choices.
			if response.Usage != nil && openaiProvider.TokenManagement != nil {
				openaiProvider.TokenManagement.UsedTokens(response.Usage.PromptTokens, response.Usage.CompletionTokens)
			}
			if len(response.Choices) == 0 {
				continue
			}

			content := response.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			markdownBuffer.WriteString(content)

			// Send chunk if it contains a newline, and then reset the buffer
			if strings.Contains(content, "\n") {
				responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
				markdownBuffer.Reset()
			}
		}

		if markdownBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
		}
		responseChan <- models.StreamResponse{Done: true}
	}()

	return responseChan
}

// classifyError converts go-openai API errors into classified provider
// errors so the retry layer can tell rate limiting from hard failures.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return models.NewProviderError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	return err
}
