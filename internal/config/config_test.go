package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 512, cfg.LLMMaxTokens)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "Bedrock ")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("LLM_TEMPERATURE", "0.2")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "bedrock", cfg.LLMProvider, "provider should be normalized")
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 0.2, cfg.LLMTemperature)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("LLM_MAX_TOKENS", "lots")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 512, cfg.LLMMaxTokens)
}
