package providers

// AIProviderConfig is the provider section of the application configuration.
type AIProviderConfig struct {
	Provider        string   `mapstructure:"provider"`
	BaseURL         string   `mapstructure:"base_url"`
	Model           string   `mapstructure:"model"`
	ApiKey          string   `mapstructure:"api_key"`
	Temperature     *float32 `mapstructure:"temperature"`
	ReasoningEffort *string  `mapstructure:"reasoning_effort"`
	MaxRetries      int      `mapstructure:"max_retries"`
}
