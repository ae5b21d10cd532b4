// Package config loads process configuration from the environment. A .env
// file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config carries everything needed to construct the chat model, the Neo4j
// driver and the front-end listeners.
type Config struct {
	// Chat model provider: "openai" (default) or "ark".
	Provider string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float32

	ArkAPIKey  string
	ArkModel   string
	ArkBaseURL string

	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string

	// Listen addresses for the optional front ends.
	WebAddr string
	MCPAddr string
}

// Load reads the .env file (if any) and the environment. It does not
// validate; call Validate before constructing the pipeline.
func Load() *Config {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		Provider:          getenv("CHAT_MODEL_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       getenv("OPENAI_MODEL_NAME", "gpt-4.1-nano"),
		OpenAITemperature: getenvFloat("OPENAI_TEMPERATURE", 0),
		ArkAPIKey:         os.Getenv("ARK_API_KEY"),
		ArkModel:          os.Getenv("ARK_CHAT_MODEL"),
		ArkBaseURL:        os.Getenv("ARK_BASE_URL"),
		Neo4jURI:          getenv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername:     getenv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword:     os.Getenv("NEO4J_PASSWORD"),
		WebAddr:           getenv("WEB_LISTEN_ADDR", ":8080"),
		MCPAddr:           getenv("MCP_LISTEN_ADDR", "localhost:12345"),
	}
}

// Validate reports the first missing required value. A failure here is
// startup-fatal: the pipeline must not be constructed from a partial
// configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case ProviderArk:
		if c.ArkAPIKey == "" {
			return fmt.Errorf("ARK_API_KEY environment variable is required")
		}
		if c.ArkModel == "" {
			return fmt.Errorf("ARK_CHAT_MODEL environment variable is required")
		}
	default:
		return fmt.Errorf("unknown CHAT_MODEL_PROVIDER %q", c.Provider)
	}
	if c.Neo4jPassword == "" {
		return fmt.Errorf("NEO4J_PASSWORD environment variable is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}
