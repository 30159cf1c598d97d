package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "printora-backend/domain/config"
)

func writeTuningFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadTuning(t *testing.T) {
	t.Run("Should return environment defaults without a file", func(t *testing.T) {
		cfg, err := LoadTuning("", "production")
		require.NoError(t, err)

		assert.Equal(t, "printora", cfg.CacheNamespace)
		assert.Equal(t, 200, cfg.RateLimitRules["browsing"].Limit)
	})

	t.Run("Should overlay profile and preset overrides", func(t *testing.T) {
		path := writeTuningFile(t, `
cache:
  compressionThreshold: 2000
  profiles:
    template:
      ttl: 45m
    banner:
      maxEntries: 50
rateLimit:
  presets:
    contact:
      limit: 2
      window: 30m
  behaviorWindow: 20m
`)

		cfg, err := LoadTuning(path, "")
		require.NoError(t, err)

		assert.Equal(t, 2000, cfg.CompressionThreshold)

		template := cfg.CacheProfiles["template"]
		assert.Equal(t, 45*time.Minute, template.TTL)
		assert.Equal(t, 5000, template.MaxEntries)

		banner := cfg.CacheProfiles["banner"]
		assert.Equal(t, 50, banner.MaxEntries)
		assert.Equal(t, cfg.DefaultCacheProfile.TTL, banner.TTL)

		contact := cfg.RateLimitRules["contact"]
		assert.Equal(t, 2, contact.Limit)
		assert.Equal(t, 30*time.Minute, contact.Window)
		assert.True(t, contact.Sensitive)

		assert.Equal(t, 20*time.Minute, cfg.BehaviorWindow)
	})

	t.Run("Should keep untouched presets intact", func(t *testing.T) {
		path := writeTuningFile(t, `
rateLimit:
  presets:
    order:
      limit: 4
`)

		cfg, err := LoadTuning(path, "")
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.RateLimitRules["order"].Limit)
		assert.Equal(t, 300, cfg.RateLimitRules["browsing"].Limit)
		assert.Equal(t, 10*time.Minute, cfg.RateLimitRules["order"].Window)
	})

	t.Run("Should reject malformed durations", func(t *testing.T) {
		path := writeTuningFile(t, `
cache:
  profiles:
    template:
      ttl: soon
`)

		_, err := LoadTuning(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid duration")
	})

	t.Run("Should reject overrides that break validation", func(t *testing.T) {
		path := writeTuningFile(t, `
rateLimit:
  presets:
    browsing:
      limit: -5
`)

		_, err := LoadTuning(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid tuning")
	})

	t.Run("Should fail on unreadable file", func(t *testing.T) {
		_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"), "")
		require.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		t.Setenv("SERVER_ADDRESS", "")
		t.Setenv("ENVIRONMENT", "")
		t.Setenv("CONTENT_BACKEND", "")
		t.Setenv("STATS_INTERVAL", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.ServerAddress)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "memory", cfg.ContentBackend)
		assert.Equal(t, time.Minute, cfg.StatsInterval)
		assert.True(t, cfg.IsDevelopment())
	})

	t.Run("Should read environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_ADDRESS", ":9999")
		t.Setenv("CONTENT_BACKEND", "dynamodb")
		t.Setenv("STATS_INTERVAL", "30s")
		t.Setenv("MAX_REQUEST_BODY", "2048")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":9999", cfg.ServerAddress)
		assert.Equal(t, "dynamodb", cfg.ContentBackend)
		assert.Equal(t, 30*time.Second, cfg.StatsInterval)
		assert.Equal(t, 2048, cfg.MaxRequestBody)
	})

	t.Run("Should reject unknown content backend", func(t *testing.T) {
		t.Setenv("CONTENT_BACKEND", "postgres")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("Should require dynamodb backend in production", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("CONTENT_BACKEND", "memory")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestTuningWatcher(t *testing.T) {
	t.Run("Should push validated reloads to listeners", func(t *testing.T) {
		path := writeTuningFile(t, `
rateLimit:
  presets:
    browsing:
      limit: 111
`)

		watcher, err := NewTuningWatcher(path, "", zap.NewNop())
		require.NoError(t, err)
		defer watcher.Stop()

		assert.Equal(t, 111, watcher.GetCurrent().RateLimitRules["browsing"].Limit)

		reloads := make(chan int, 4)
		watcher.OnChange(func(cfg *domainconfig.DomainConfig) {
			reloads <- cfg.RateLimitRules["browsing"].Limit
		})
		watcher.Start()

		require.NoError(t, os.WriteFile(path, []byte(`
rateLimit:
  presets:
    browsing:
      limit: 222
`), 0o644))

		select {
		case limit := <-reloads:
			assert.Equal(t, 222, limit)
		case <-time.After(3 * time.Second):
			t.Fatal("reload was not delivered")
		}
		assert.Equal(t, 222, watcher.GetCurrent().RateLimitRules["browsing"].Limit)
	})

	t.Run("Should keep last good tuning on a broken write", func(t *testing.T) {
		path := writeTuningFile(t, `
rateLimit:
  presets:
    browsing:
      limit: 111
`)

		watcher, err := NewTuningWatcher(path, "", zap.NewNop())
		require.NoError(t, err)
		defer watcher.Stop()
		watcher.Start()

		require.NoError(t, os.WriteFile(path, []byte("rateLimit: ["), 0o644))

		// Give the watcher time to see and reject the broken write
		time.Sleep(500 * time.Millisecond)
		assert.Equal(t, 111, watcher.GetCurrent().RateLimitRules["browsing"].Limit)
	})

	t.Run("Should fail fast when the file is missing", func(t *testing.T) {
		_, err := NewTuningWatcher(filepath.Join(t.TempDir(), "absent.yaml"), "", zap.NewNop())
		require.Error(t, err)
	})
}
