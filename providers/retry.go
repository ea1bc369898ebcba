package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meysamhadeli/loopai/providers/contracts"
	"github.com/meysamhadeli/loopai/providers/models"
)

const defaultMaxAttempts = 3

var (
	baseBackoff = 2 * time.Second
	maxBackoff  = 30 * time.Second
)

// CompleteWithRetry drains one streaming completion into a single response
// string, retrying rate-limited and transient failures with exponential
// backoff. Fatal errors and context cancellation abort immediately. onChunk,
// when non-nil, receives each content chunk as it arrives.
func CompleteWithRetry(ctx context.Context, provider contracts.IChatAIProvider, userInput string, prompt string, maxAttempts int, onChunk func(string)) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := drainCompletion(ctx, provider, userInput, prompt, onChunk)
		if err == nil {
			return response, nil
		}
		lastErr = err

		kind := models.Classify(err)
		if kind == models.ErrorKindFatal || ctx.Err() != nil {
			return "", err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoffDelay(attempt, kind)):
		}
	}

	return "", fmt.Errorf("model request failed after %d attempts: %w", maxAttempts, lastErr)
}

// drainCompletion consumes one full stream. The stream either ends cleanly
// after a Done marker or delivers an error as its last value.
func drainCompletion(ctx context.Context, provider contracts.IChatAIProvider, userInput string, prompt string, onChunk func(string)) (string, error) {
	var builder strings.Builder

	for chunk := range provider.ChatCompletionRequest(ctx, userInput, prompt) {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		if chunk.Content == "" {
			continue
		}
		builder.WriteString(chunk.Content)
		if onChunk != nil {
			onChunk(chunk.Content)
		}
	}

	return builder.String(), nil
}

// backoffDelay grows exponentially with the attempt number, doubled again
// when the backend is rate limiting.
func backoffDelay(attempt int, kind models.ErrorKind) time.Duration {
	delay := baseBackoff << (attempt - 1)
	if kind == models.ErrorKindRateLimited {
		delay *= 2
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
