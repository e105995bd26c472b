package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		EnvAPIKey, EnvProvider, EnvTextModel, EnvEmbedModel, EnvTimeout, EnvIndexPath,
		EnvCollection, EnvSeedCatalog, EnvRedisURL, EnvS3Endpoint, EnvSessionTTL, EnvRateLimitRPS, EnvRateLimitBurst,
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_TrimsAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "  secret-key \n")
	t.Setenv(EnvTextModel, "gemini-2.0-flash")
	t.Setenv(EnvIndexPath, "/tmp/index")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.TextModel)
	assert.Equal(t, "/tmp/index", cfg.IndexPath)
	assert.True(t, cfg.HasAPIKey())
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTimeout, "soon")

	_, err := FromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}

func TestFromEnv_InvalidRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRateLimitBurst, "many")

	_, err := FromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvRateLimitBurst)
}

func TestLoad_DefaultsWithoutKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.HasAPIKey())
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "text-embedding-004", cfg.EmbedModel)
	assert.Equal(t, ".careerpath/index", cfg.IndexPath)
	assert.Equal(t, "careers", cfg.Collection)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	content := `{
		"api_key": " file-key ",
		"collection": "from-file",
		"index_path": "/var/lib/careerpath",
		"embed_model": "embedding-001"
	}`
	path := filepath.Join(t.TempDir(), "careerpath.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv(EnvCollection, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "from-env", cfg.Collection)
	assert.Equal(t, "/var/lib/careerpath", cfg.IndexPath)
	assert.Equal(t, "embedding-001", cfg.EmbedModel)
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadFile(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadFile_FileNotFound(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "mystery" }, wantErr: true},
		{name: "empty collection", mutate: func(c *Config) { c.Collection = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "bad redis url", mutate: func(c *Config) { c.RedisURL = "not a url" }, wantErr: true},
		{name: "redis url", mutate: func(c *Config) { c.RedisURL = "redis://localhost:6379/0" }, wantErr: false},
		{name: "minio endpoint", mutate: func(c *Config) { c.S3Endpoint = "http://localhost:9000" }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{TextModel: "custom-model", Collection: "mine"}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, "custom-model", merged.TextModel)
	assert.Equal(t, "mine", merged.Collection)
	assert.Equal(t, "text-embedding-004", merged.EmbedModel)
	assert.Equal(t, 10, merged.RateLimitBurst)
	assert.Equal(t, 2.0, merged.RateLimitRPS)
}
