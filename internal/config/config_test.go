package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("INDEX_PREFIX", "")
	t.Setenv("RECONCILE_INTERVAL", "")
	t.Setenv("BULK_CHUNK_SIZE", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "dev_", cfg.IndexPrefix)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Equal(t, 500, cfg.BulkChunkSize)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("INDEX_PREFIX", "rs_")
	t.Setenv("ELASTICSEARCH_URLS", "http://es1:9200, http://es2:9200,")
	t.Setenv("RECONCILE_INTERVAL", "15m")
	t.Setenv("BULK_CHUNK_SIZE", "200")

	cfg := Load()
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.Equal(t, "rs_", cfg.IndexPrefix)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ElasticsearchURLs)
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 200, cfg.BulkChunkSize)
	assert.False(t, cfg.IsDev())
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Hour},
		{"0", 0},
		{"30s", 30 * time.Second},
		{"soon", time.Hour},
		{"-5m", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("RECONCILE_INTERVAL", tt.value)
			assert.Equal(t, tt.want, getDuration("RECONCILE_INTERVAL", time.Hour))
		})
	}
}
