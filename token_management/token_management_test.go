package token_management

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUsedTokens_Accumulates sums input and output tokens across requests.
func TestUsedTokens_Accumulates(t *testing.T) {
	manager := NewTokenManager()

	manager.UsedTokens(100, 50)
	manager.UsedTokens(200, 25)

	total, input, output := manager.GetCurrentTokenUsage()
	assert.Equal(t, 375, total)
	assert.Equal(t, 300, input)
	assert.Equal(t, 75, output)
}

// TestClearToken resets all counters.
func TestClearToken(t *testing.T) {
	manager := NewTokenManager()
	manager.UsedTokens(10, 10)

	manager.ClearToken()

	total, input, output := manager.GetCurrentTokenUsage()
	assert.Zero(t, total)
	assert.Zero(t, input)
	assert.Zero(t, output)
}

// TestCalculateCost uses the embedded per-million price table.
func TestCalculateCost(t *testing.T) {
	manager := NewTokenManager()

	cost := manager.CalculateCost("openai", "gpt-4o", 1000000, 1000000)
	require.InDelta(t, 12.5, cost, 1e-9)

	// Model names are matched case-insensitively.
	assert.InDelta(t, 12.5, manager.CalculateCost("openai", "GPT-4o", 1000000, 1000000), 1e-9)
}

// TestCalculateCost_UnknownModel falls back to zero instead of failing.
func TestCalculateCost_UnknownModel(t *testing.T) {
	manager := NewTokenManager()
	assert.Zero(t, manager.CalculateCost("openai", "unknown-model", 1000, 1000))
}

// TestCalculateCost_LocalModel: local models carry no price entry values.
func TestCalculateCost_LocalModel(t *testing.T) {
	manager := NewTokenManager()
	assert.Zero(t, manager.CalculateCost("ollama", "llama3.1", 5000, 5000))
}
