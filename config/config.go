package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meysamhadeli/loopai/constants/lipgloss"
	"github.com/meysamhadeli/loopai/providers"
)

// configCacheEntry holds one parsed configuration with the file state it was
// read from.
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
	Loop             LoopConfig                  `mapstructure:"loop"`
	Selector         SelectorConfig              `mapstructure:"selector"`
}

// LoopConfig tunes the iteration loop.
type LoopConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	ResponseStyle    string        `mapstructure:"response_style"`
	AutoCommit       bool          `mapstructure:"auto_commit"`
	ValidateCommand  string        `mapstructure:"validate_command"`
	ValidateRequired bool          `mapstructure:"validate_required"`
	Interactive      bool          `mapstructure:"interactive"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
}

// SelectorConfig tunes context selection.
type SelectorConfig struct {
	MaxFiles        int    `mapstructure:"max_files"`
	MaxContextBytes int64  `mapstructure:"max_context_bytes"`
	ContentMode     string `mapstructure:"content_mode"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version: "1.0.0",
	Theme:   "dracula",
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:        "openai",
		BaseURL:         "https://api.openai.com/v1",
		Model:           "gpt-4o",
		ApiKey:          "",
		Temperature:     nil,
		ReasoningEffort: nil,
		MaxRetries:      3,
	},
	Loop: LoopConfig{
		MaxIterations:   10,
		ResponseStyle:   "diff",
		ProviderTimeout: 5 * time.Minute,
	},
	Selector: SelectorConfig{
		MaxFiles:        50,
		MaxContextBytes: 262144,
		ContentMode:     "full",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
		if fileType := GetConfigFileType(cfgFile); fileType != "" {
			viper.SetConfigType(fileType)
		}
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("loopai-config")
		viper.AddConfigPath(cwd)

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, we'll continue with defaults
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.reasoning_effort", DefaultConfig.AIProviderConfig.ReasoningEffort)
	viper.SetDefault("ai_provider_config.max_retries", DefaultConfig.AIProviderConfig.MaxRetries)
	viper.SetDefault("loop.max_iterations", DefaultConfig.Loop.MaxIterations)
	viper.SetDefault("loop.response_style", DefaultConfig.Loop.ResponseStyle)
	viper.SetDefault("loop.auto_commit", DefaultConfig.Loop.AutoCommit)
	viper.SetDefault("loop.validate_command", DefaultConfig.Loop.ValidateCommand)
	viper.SetDefault("loop.validate_required", DefaultConfig.Loop.ValidateRequired)
	viper.SetDefault("loop.interactive", DefaultConfig.Loop.Interactive)
	viper.SetDefault("loop.provider_timeout", DefaultConfig.Loop.ProviderTimeout)
	viper.SetDefault("selector.max_files", DefaultConfig.Selector.MaxFiles)
	viper.SetDefault("selector.max_context_bytes", DefaultConfig.Selector.MaxContextBytes)
	viper.SetDefault("selector.content_mode", DefaultConfig.Selector.ContentMode)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "LOOPAI_THEME")
	_ = viper.BindEnv("ai_provider_config.provider", "LOOPAI_PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "LOOPAI_BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "LOOPAI_MODEL")
	_ = viper.BindEnv("ai_provider_config.api_key", "LOOPAI_API_KEY")
	_ = viper.BindEnv("ai_provider_config.temperature", "LOOPAI_TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.reasoning_effort", "LOOPAI_REASONING_EFFORT")
	_ = viper.BindEnv("ai_provider_config.max_retries", "LOOPAI_MAX_RETRIES")
	_ = viper.BindEnv("loop.max_iterations", "LOOPAI_MAX_ITERATIONS")
	_ = viper.BindEnv("loop.response_style", "LOOPAI_RESPONSE_STYLE")
	_ = viper.BindEnv("loop.auto_commit", "LOOPAI_AUTO_COMMIT")
	_ = viper.BindEnv("loop.validate_command", "LOOPAI_VALIDATE_COMMAND")
	_ = viper.BindEnv("loop.validate_required", "LOOPAI_VALIDATE_REQUIRED")
	_ = viper.BindEnv("loop.provider_timeout", "LOOPAI_PROVIDER_TIMEOUT")
	_ = viper.BindEnv("selector.max_files", "LOOPAI_MAX_FILES")
	_ = viper.BindEnv("selector.max_context_bytes", "LOOPAI_MAX_CONTEXT_BYTES")
	_ = viper.BindEnv("selector.content_mode", "LOOPAI_CONTENT_MODE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("ai_provider_config.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("ai_provider_config.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
	_ = viper.BindPFlag("ai_provider_config.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("ai_provider_config.reasoning_effort", rootCmd.PersistentFlags().Lookup("reasoning_effort"))
	_ = viper.BindPFlag("ai_provider_config.max_retries", rootCmd.PersistentFlags().Lookup("max_retries"))
	_ = viper.BindPFlag("loop.max_iterations", rootCmd.PersistentFlags().Lookup("max_iterations"))
	_ = viper.BindPFlag("loop.response_style", rootCmd.PersistentFlags().Lookup("style"))
	_ = viper.BindPFlag("loop.auto_commit", rootCmd.PersistentFlags().Lookup("auto_commit"))
	_ = viper.BindPFlag("loop.validate_command", rootCmd.PersistentFlags().Lookup("validate_cmd"))
	_ = viper.BindPFlag("loop.validate_required", rootCmd.PersistentFlags().Lookup("validate_required"))
	_ = viper.BindPFlag("loop.interactive", rootCmd.PersistentFlags().Lookup("interactive"))
	_ = viper.BindPFlag("loop.provider_timeout", rootCmd.PersistentFlags().Lookup("provider_timeout"))
	_ = viper.BindPFlag("selector.max_files", rootCmd.PersistentFlags().Lookup("max_files"))
	_ = viper.BindPFlag("selector.max_context_bytes", rootCmd.PersistentFlags().Lookup("max_context_bytes"))
	_ = viper.BindPFlag("selector.content_mode", rootCmd.PersistentFlags().Lookup("content_mode"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	// Theme configuration
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for buffering response from ai. (e.g., 'dracula', 'light', 'dark')")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'openai', 'ollama')")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of AI Provider (e.g., default is 'https://api.openai.com/v1').")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'gpt-4o'.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the AI model's creativity (0-1, default 0.2).")
	rootCmd.PersistentFlags().String("reasoning_effort", "", "Adjusts the AI Reasoning model's effort (e.g., 'low', 'medium', 'high').")
	rootCmd.PersistentFlags().Int("max_retries", DefaultConfig.AIProviderConfig.MaxRetries, "How many times a rate limited or transient provider failure is retried before the run aborts.")

	// Loop configuration
	rootCmd.PersistentFlags().Int("max_iterations", DefaultConfig.Loop.MaxIterations, "The maximum number of loop iterations before the run stops.")
	rootCmd.PersistentFlags().String("style", DefaultConfig.Loop.ResponseStyle, "The response style the model is asked for: 'diff' (unified diffs) or 'whole' (whole file replacements).")
	rootCmd.PersistentFlags().Bool("auto_commit", DefaultConfig.Loop.AutoCommit, "Commit the working tree after each iteration that modified files (requires a git repository).")
	rootCmd.PersistentFlags().String("validate_cmd", DefaultConfig.Loop.ValidateCommand, "A shell command run after each iteration; its failure output is fed into the next prompt.")
	rootCmd.PersistentFlags().Bool("validate_required", DefaultConfig.Loop.ValidateRequired, "Treat a failing validation command as a fatal error instead of advisory feedback.")
	rootCmd.PersistentFlags().Bool("interactive", DefaultConfig.Loop.Interactive, "Ask for confirmation before applying each iteration's changes.")
	rootCmd.PersistentFlags().Duration("provider_timeout", DefaultConfig.Loop.ProviderTimeout, "How long one model call may take including retries.")

	// Selector configuration
	rootCmd.PersistentFlags().Int("max_files", DefaultConfig.Selector.MaxFiles, "The maximum number of files selected into the context window (0 means unbounded).")
	rootCmd.PersistentFlags().Int64("max_context_bytes", DefaultConfig.Selector.MaxContextBytes, "The byte budget of the context window (0 means unbounded).")
	rootCmd.PersistentFlags().String("content_mode", DefaultConfig.Selector.ContentMode, "How file content is loaded into the context: 'full' or 'summary' (extracted declarations).")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	var configFilePath string

	// Determine config file path
	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		// Check for default config files
		yamlPath := fmt.Sprintf("%s/loopai-config.yaml", cwd)
		ymlPath := fmt.Sprintf("%s/loopai-config.yml", cwd)
		jsonPath := fmt.Sprintf("%s/loopai-config.json", cwd)

		if _, err := os.Stat(yamlPath); err == nil {
			configFilePath = yamlPath
		} else if _, err := os.Stat(ymlPath); err == nil {
			configFilePath = ymlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			configFilePath = jsonPath
		}
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		// File doesn't exist or error, fallback to regular loading
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		// Check if file has been modified since cache
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config
		}
	}
	cacheMutex.RUnlock()

	// Load configuration normally
	config := LoadConfigs(rootCmd, cwd)

	// Update cache
	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// InvalidateConfigCache removes a specific config file from cache
func InvalidateConfigCache(configPath string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	delete(configCache, configPath)
}
