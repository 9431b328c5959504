package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/promptctx/internal/utils"
)

const (
	// DefaultHost matches the address the server binds to when nothing else is configured.
	DefaultHost = "0.0.0.0"
	// DefaultPort is the port the server listens on when nothing else is configured.
	DefaultPort = 8082
	// DefaultTokenizerModel is used for token counting when no model is configured.
	DefaultTokenizerModel = "gpt-4o"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	ProjectDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds optional settings read from configuration files.
type ApplicationConfiguration struct {
	Server ServerConfiguration `mapstructure:"server"`
	Prompt PromptConfiguration `mapstructure:"prompt"`
	Paths  PathConfiguration   `mapstructure:"paths"`
}

// ServerConfiguration configures the HTTP listener.
type ServerConfiguration struct {
	Host    string `mapstructure:"host"`
	Port    *int   `mapstructure:"port"`
	Verbose *bool  `mapstructure:"verbose"`
}

// PromptConfiguration configures prompt post-processing.
type PromptConfiguration struct {
	Tokens    TokenConfiguration `mapstructure:"tokens"`
	Clipboard *bool              `mapstructure:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// PathConfiguration configures which entries the tree hides beyond hidden files.
type PathConfiguration struct {
	Exclude       []string `mapstructure:"exclude"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
}

// Settings is the fully resolved configuration with defaults applied.
type Settings struct {
	Host          string
	Port          int
	Verbose       bool
	TokensEnabled bool
	TokenModel    string
	HostClipboard bool
	Exclude       []string
	UseGitignore  bool
	UseIgnoreFile bool
}

// LoadApplicationConfiguration loads configuration from the global file and then
// from the project-local (or explicitly named) file, the latter taking precedence.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(options.ProjectDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Paths.Exclude = utils.DeduplicatePatterns(merged.Paths.Exclude)
	return merged, nil
}

func resolveLocalConfigPath(projectDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		absolute, err := filepath.Abs(explicitPath)
		if err != nil {
			return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
		}
		return absolute, nil
	}
	if projectDirectory == "" {
		return "", nil
	}
	return filepath.Join(projectDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Server = result.Server.merge(override.Server)
	result.Prompt = result.Prompt.merge(override.Prompt)
	result.Paths = result.Paths.merge(override.Paths)
	return result
}

// Settings resolves every optional value, falling back to defaults.
func (config ApplicationConfiguration) Settings() Settings {
	settings := Settings{
		Host:          DefaultHost,
		Port:          DefaultPort,
		Verbose:       boolOrDefault(config.Server.Verbose, false),
		TokensEnabled: boolOrDefault(config.Prompt.Tokens.Enabled, false),
		TokenModel:    DefaultTokenizerModel,
		HostClipboard: boolOrDefault(config.Prompt.Clipboard, false),
		Exclude:       append([]string{}, config.Paths.Exclude...),
		UseGitignore:  boolOrDefault(config.Paths.UseGitignore, false),
		UseIgnoreFile: boolOrDefault(config.Paths.UseIgnoreFile, false),
	}
	if config.Server.Host != "" {
		settings.Host = config.Server.Host
	}
	if config.Server.Port != nil {
		settings.Port = *config.Server.Port
	}
	if config.Prompt.Tokens.Model != "" {
		settings.TokenModel = config.Prompt.Tokens.Model
	}
	return settings
}

func (config ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := config
	if override.Host != "" {
		result.Host = override.Host
	}
	if override.Port != nil {
		result.Port = cloneInt(override.Port)
	}
	if override.Verbose != nil {
		result.Verbose = cloneBool(override.Verbose)
	}
	return result
}

func (config PromptConfiguration) merge(override PromptConfiguration) PromptConfiguration {
	result := config
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	return result
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
