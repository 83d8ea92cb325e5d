package config

import (
	"fmt"
	"maps"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "CADENCE_AGENT_NAME"
	EnvAgentProviderName = "CADENCE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "CADENCE_AGENT_BASE_URL"
	EnvAgentToken        = "CADENCE_AGENT_TOKEN"
	EnvAgentDeployment   = "CADENCE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "CADENCE_AGENT_API_VERSION"
	EnvAgentAuthType     = "CADENCE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "CADENCE_AGENT_MODEL_NAME"
)

// AgentConfig describes the completion service used for grading. It is the
// TOML form of a go-agents AgentConfig.
type AgentConfig struct {
	Name     string              `toml:"name"`
	Provider AgentProviderConfig `toml:"provider"`
	Model    AgentModelConfig    `toml:"model"`
}

// AgentProviderConfig selects the provider and its connection options.
type AgentProviderConfig struct {
	Name    string         `toml:"name"`
	BaseURL string         `toml:"base_url"`
	Options map[string]any `toml:"options"`
}

// AgentModelConfig names the model served by the provider.
type AgentModelConfig struct {
	Name string `toml:"name"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Provider options are merged
// key by key.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider.Name != "" {
		c.Provider.Name = overlay.Provider.Name
	}
	if overlay.Provider.BaseURL != "" {
		c.Provider.BaseURL = overlay.Provider.BaseURL
	}
	if len(overlay.Provider.Options) > 0 {
		if c.Provider.Options == nil {
			c.Provider.Options = make(map[string]any, len(overlay.Provider.Options))
		}
		maps.Copy(c.Provider.Options, overlay.Provider.Options)
	}
	if overlay.Model.Name != "" {
		c.Model.Name = overlay.Model.Name
	}
}

// GoAgentsConfig converts the section into a go-agents AgentConfig layered
// over the go-agents defaults.
func (c *AgentConfig) GoAgentsConfig() *gaconfig.AgentConfig {
	overlay := gaconfig.AgentConfig{
		Name: c.Name,
		Provider: &gaconfig.ProviderConfig{
			Name:    c.Provider.Name,
			BaseURL: c.Provider.BaseURL,
			Options: maps.Clone(c.Provider.Options),
		},
		Model: &gaconfig.ModelConfig{
			Name: c.Model.Name,
		},
	}

	cfg := gaconfig.DefaultAgentConfig()
	cfg.Merge(&overlay)
	return &cfg
}

func (c *AgentConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "cadence-grader"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "ollama"
	}
	if c.Provider.BaseURL == "" && c.Provider.Name == "ollama" {
		c.Provider.BaseURL = "http://localhost:11434"
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model.Name == "" {
		c.Model.Name = "llama3.1:8b"
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func (c *AgentConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url required")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name required")
	}
	return nil
}
