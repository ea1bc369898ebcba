package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/loopai/providers/models"
)

// scriptedProvider plays back one script per ChatCompletionRequest call.
type scriptedProvider struct {
	calls    int
	attempts []func(chan<- models.StreamResponse)
}

func (provider *scriptedProvider) ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse {
	script := provider.attempts[provider.calls]
	provider.calls++

	responseChan := make(chan models.StreamResponse)
	go func() {
		defer close(responseChan)
		script(responseChan)
	}()
	return responseChan
}

func withFastBackoff(t *testing.T) {
	t.Helper()
	originalBase, originalMax := baseBackoff, maxBackoff
	baseBackoff, maxBackoff = time.Millisecond, 4*time.Millisecond
	t.Cleanup(func() {
		baseBackoff, maxBackoff = originalBase, originalMax
	})
}

// TestCompleteWithRetry_Success drains a clean stream into one string and
// forwards every chunk to the callback.
func TestCompleteWithRetry_Success(t *testing.T) {
	provider := &scriptedProvider{attempts: []func(chan<- models.StreamResponse){
		func(out chan<- models.StreamResponse) {
			out <- models.StreamResponse{Content: "hello "}
			out <- models.StreamResponse{Content: "world"}
			out <- models.StreamResponse{Done: true}
		},
	}}

	var chunks []string
	response, err := CompleteWithRetry(context.Background(), provider, "input", "prompt", 3, func(chunk string) {
		chunks = append(chunks, chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, "hello world", response)
	assert.Equal(t, []string{"hello ", "world"}, chunks)
	assert.Equal(t, 1, provider.calls)
}

// TestCompleteWithRetry_TransientThenSuccess retries a transient failure.
func TestCompleteWithRetry_TransientThenSuccess(t *testing.T) {
	withFastBackoff(t)

	provider := &scriptedProvider{attempts: []func(chan<- models.StreamResponse){
		func(out chan<- models.StreamResponse) {
			out <- models.StreamResponse{Err: errors.New("connection reset")}
		},
		func(out chan<- models.StreamResponse) {
			out <- models.StreamResponse{Content: "recovered"}
			out <- models.StreamResponse{Done: true}
		},
	}}

	response, err := CompleteWithRetry(context.Background(), provider, "input", "prompt", 3, nil)

	require.NoError(t, err)
	assert.Equal(t, "recovered", response)
	assert.Equal(t, 2, provider.calls)
}

// TestCompleteWithRetry_FatalAbortsImmediately: auth failures never retry.
func TestCompleteWithRetry_FatalAbortsImmediately(t *testing.T) {
	providerErr := models.NewProviderError(401, "invalid api key")
	provider := &scriptedProvider{attempts: []func(chan<- models.StreamResponse){
		func(out chan<- models.StreamResponse) {
			out <- models.StreamResponse{Err: providerErr}
		},
	}}

	_, err := CompleteWithRetry(context.Background(), provider, "input", "prompt", 3, nil)

	require.Error(t, err)
	assert.Equal(t, 1, provider.calls)

	var classified *models.ProviderError
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, models.ErrorKindFatal, classified.Kind)
}

// TestCompleteWithRetry_ExhaustsAttempts reports the last error after the
// final attempt.
func TestCompleteWithRetry_ExhaustsAttempts(t *testing.T) {
	withFastBackoff(t)

	failing := func(out chan<- models.StreamResponse) {
		out <- models.StreamResponse{Err: models.NewProviderError(503, "overloaded")}
	}
	provider := &scriptedProvider{attempts: []func(chan<- models.StreamResponse){failing, failing, failing}}

	_, err := CompleteWithRetry(context.Background(), provider, "input", "prompt", 3, nil)

	require.Error(t, err)
	assert.Equal(t, 3, provider.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "overloaded")
}

// TestClassifyStatus maps status codes onto retry behavior.
func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, models.ErrorKindRateLimited, models.ClassifyStatus(429))
	assert.Equal(t, models.ErrorKindTransient, models.ClassifyStatus(408))
	assert.Equal(t, models.ErrorKindTransient, models.ClassifyStatus(500))
	assert.Equal(t, models.ErrorKindTransient, models.ClassifyStatus(503))
	assert.Equal(t, models.ErrorKindFatal, models.ClassifyStatus(400))
	assert.Equal(t, models.ErrorKindFatal, models.ClassifyStatus(401))
	assert.Equal(t, models.ErrorKindFatal, models.ClassifyStatus(404))
}

// TestClassify covers wrapped provider errors and context errors.
func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", models.NewProviderError(429, "slow down"))
	assert.Equal(t, models.ErrorKindRateLimited, models.Classify(wrapped))

	assert.Equal(t, models.ErrorKindFatal, models.Classify(context.Canceled))
	assert.Equal(t, models.ErrorKindTransient, models.Classify(context.DeadlineExceeded))
	assert.Equal(t, models.ErrorKindTransient, models.Classify(errors.New("connection refused")))
}

// TestBackoffDelay grows per attempt, doubles for rate limiting and caps at
// the maximum.
func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, baseBackoff, backoffDelay(1, models.ErrorKindTransient))
	assert.Equal(t, 2*baseBackoff, backoffDelay(2, models.ErrorKindTransient))
	assert.Equal(t, 2*baseBackoff, backoffDelay(1, models.ErrorKindRateLimited))
	assert.Equal(t, maxBackoff, backoffDelay(10, models.ErrorKindTransient))
}
