package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/providers/models"
	ollama_models "github.com/meysamhadeli/loopai/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/loopai/token_management/contracts"
)

// OllamaConfig holds the connection settings for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	TokenManagement contracts2.ITokenManagement
}

const defaultBaseURL = "http://localhost:11434/api"

// NewOllamaChatProvider initializes a new Ollama chat provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		Temperature:     config.Temperature,
		TokenManagement: config.TokenManagement,
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var markdownBuffer strings.Builder // Buffer to accumulate content until newline

	go func() {
		defer close(responseChan)

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model: ollamaProvider.Model,
			Messages: []ollama_models.Message{
				{Role: "system", Content: prompt},
				{Role: "user", Content: userInput},
			},
			Stream:      true,
			Temperature: ollamaProvider.Temperature,
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %v", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %v", err)}
			return
		}

		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %w", ctx.Err())}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error sending request: %v", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
				responseChan <- models.StreamResponse{Err: models.NewProviderError(resp.StatusCode, strings.TrimSpace(string(body)))}
				return
			}
			responseChan <- models.StreamResponse{Err: models.NewProviderError(resp.StatusCode, apiError.Error.Message)}
			return
		}

		reader := bufio.NewReader(resp.Body)

		// Stream processing
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					break
				}
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading stream: %v", err)}
				return
			}

			var response ollama_models.OllamaChatCompletionResponse
			if err := json.Unmarshal([]byte(line), &response); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %v", err)}
				return
			}

			if len(response.Message.Content) > 0 {
				content := response.Message.Content
				markdownBuffer.WriteString(content)

				// Send chunk if it contains a newline, and then reset the buffer
				if strings.Contains(content, "\n") {
					responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
					markdownBuffer.Reset()
				}
			}

			if response.Done {
				if markdownBuffer.Len() > 0 {
					responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
					markdownBuffer.Reset()
				}

				// Count total tokens usage
				if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
					ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
				}

				responseChan <- models.StreamResponse{Done: true}
				return
			}
		}

		// Send any remaining content in the buffer
		if markdownBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
		}
		responseChan <- models.StreamResponse{Done: true}
	}()

	return responseChan
}
