// Package config loads the teiinfo.yaml settings of a project.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aretw0/teiinfo/pkg/iiif"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "teiinfo.yaml"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the project configuration.
type Config struct {
	Corpus  string `mapstructure:"corpus"`
	Tools   string `mapstructure:"tools"`
	Workers int    `mapstructure:"workers"`
	LogFile string `mapstructure:"log_file"`
	// Archive is a directory where analysis and validation reports are published.
	Archive string      `mapstructure:"archive"`
	Store   StoreConfig `mapstructure:"store"`
	HTTP    HTTPConfig  `mapstructure:"http"`
	IIIF    IIIFConfig  `mapstructure:"iiif"`
}

// StoreConfig selects the analysis cache.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig locates the redis server of the redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// IIIFConfig holds the defaults of the iiif command.
type IIIFConfig struct {
	Config  string         `mapstructure:"config"`
	ScanDir string         `mapstructure:"scan_dir"`
	OutDir  string         `mapstructure:"out_dir"`
	Args    map[string]any `mapstructure:"args"`
	S3      iiif.S3Config  `mapstructure:"s3"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Corpus: ".",
		Store:  StoreConfig{Backend: StoreMemory, Path: ".teiinfo/analyses"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		IIIF:   IIIFConfig{Config: "iiif.yaml", ScanDir: "scans", OutDir: "static"},
	}
}

// Load reads path (a missing file yields the defaults) and applies the
// TEIINFO_* environment overrides.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			var raw map[string]any
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			if err := decode(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("invalid config %s: %w", path, err)
			}
			cfg.resolve(filepath.Dir(path))
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// resolve makes relative paths relative to the config file.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Corpus, &c.Tools, &c.LogFile, &c.Archive, &c.Store.Path, &c.IIIF.Config, &c.IIIF.ScanDir, &c.IIIF.OutDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"TEIINFO_CORPUS":         &c.Corpus,
		"TEIINFO_TOOLS":          &c.Tools,
		"TEIINFO_LOG_FILE":       &c.LogFile,
		"TEIINFO_ARCHIVE":        &c.Archive,
		"TEIINFO_STORE":          &c.Store.Backend,
		"TEIINFO_STORE_PATH":     &c.Store.Path,
		"TEIINFO_REDIS_ADDR":     &c.Store.Redis.Addr,
		"TEIINFO_REDIS_PASSWORD": &c.Store.Redis.Password,
		"TEIINFO_HTTP_ADDR":      &c.HTTP.Addr,
		"TEIINFO_S3_ENDPOINT":    &c.IIIF.S3.Endpoint,
		"TEIINFO_S3_BUCKET":      &c.IIIF.S3.Bucket,
		"TEIINFO_S3_ACCESS_KEY":  &c.IIIF.S3.AccessKey,
		"TEIINFO_S3_SECRET_KEY":  &c.IIIF.S3.SecretKey,
	}
	for name, p := range strs {
		if v := getenv(name); v != "" {
			*p = v
		}
	}
	if v := getenv("TEIINFO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TEIINFO_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks the values that can be checked without touching the network.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	return errors.Join(errs...)
}
