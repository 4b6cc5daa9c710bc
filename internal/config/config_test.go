package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestLoad_Missing(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
corpus: tei
tools: tools.yaml
workers: "4"
store:
  backend: redis
  redis:
    addr: localhost:6379
    ttl: 1h
iiif:
  args:
    label: Letters
  s3:
    bucket: scans
`), 0644))

	cfg, err := LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tei"), cfg.Corpus)
	assert.Equal(t, filepath.Join(dir, "tools.yaml"), cfg.Tools)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "Letters", cfg.IIIF.Args["label"])
	assert.Equal(t, "scans", cfg.IIIF.S3.Bucket)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "defaults survive")
}

func TestLoad_Env(t *testing.T) {
	env := map[string]string{
		"TEIINFO_CORPUS":     "/data/corpus",
		"TEIINFO_STORE":      "file",
		"TEIINFO_WORKERS":    "2",
		"TEIINFO_REDIS_ADDR": "redis:6379",
	}
	cfg, err := LoadWithEnv("", func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "/data/corpus", cfg.Corpus)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)

	_, err = LoadWithEnv("", func(k string) string {
		if k == "TEIINFO_WORKERS" {
			return "many"
		}
		return ""
	})
	assert.ErrorContains(t, err, "TEIINFO_WORKERS")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("corpuz: x\n"), 0644))
	_, err := LoadWithEnv(unknown, noEnv)
	assert.ErrorContains(t, err, "corpuz")

	redis := filepath.Join(dir, "redis.yaml")
	require.NoError(t, os.WriteFile(redis, []byte("store:\n  backend: redis\n"), 0644))
	_, err = LoadWithEnv(redis, noEnv)
	assert.ErrorContains(t, err, "store.redis.addr")

	backend := filepath.Join(dir, "backend.yaml")
	require.NoError(t, os.WriteFile(backend, []byte("store:\n  backend: etcd\n"), 0644))
	_, err = LoadWithEnv(backend, noEnv)
	assert.ErrorContains(t, err, "unknown store backend")
}
