package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.RecapHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:7b", cfg.RecapModel)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, 48000, cfg.MaxInputChars)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.RecapHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.RecapHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:1111/v1"),
			WithRecapHost("http://recap:2222/v1"),
		)

		assert.Equal(t, "http://embed:1111/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://recap:2222/v1", cfg.RecapHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithRecapModel("gpt-4o-mini"),
			WithToken("sk-test"),
			WithMaxInputChars(1000),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.RecapModel)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 1000, cfg.MaxInputChars)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()

			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.RecapHost)
		})
	}
}

func TestNormalizeDefaultsToken(t *testing.T) {
	cfg := NewConfig(WithToken(""))
	cfg.Normalize()

	assert.Equal(t, "none", cfg.Token)
}

func TestValidate(t *testing.T) {
	t.Run("valid default config", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing recap model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RecapModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive max input chars", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxInputChars = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestRecapIsZero(t *testing.T) {
	assert.True(t, (&Recap{}).IsZero())
	assert.False(t, (&Recap{Summary: "s"}).IsZero())
	assert.False(t, (&Recap{Topics: []string{"zoning"}}).IsZero())
}
