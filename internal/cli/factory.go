package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/internal/config"
	"github.com/aretw0/teiinfo/pkg/adapters/file"
	loamadapter "github.com/aretw0/teiinfo/pkg/adapters/loam"
	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/adapters/process"
	"github.com/aretw0/teiinfo/pkg/adapters/redis"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/observability"
	"github.com/aretw0/teiinfo/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Options are the global flags shared by every command.
type Options struct {
	Dir        string
	ConfigPath string
	Debug      bool
	JSON       bool
}

// App is a toolkit wired from the project configuration.
type App struct {
	Config   config.Config
	Toolkit  *teiinfo.Toolkit
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Archive  *loamadapter.Archive
	JSON     bool
	closers  []io.Closer
}

// NewApp loads the configuration and builds the toolkit.
// A --dir flag overrides the corpus of the configuration file.
func NewApp(opts Options) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(defaultDir(opts.Dir), config.DefaultFile)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if opts.Dir != "" {
		cfg.Corpus = opts.Dir
	}

	app := &App{Config: cfg, JSON: opts.JSON, Registry: prometheus.NewRegistry()}

	logger, closer, err := createLogger(opts.Debug, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	app.Logger = logger
	app.addCloser(closer)

	store, err := createStore(cfg.Store)
	if err != nil {
		app.Close()
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		app.addCloser(c)
	}

	tools, err := loadTools(cfg.Tools)
	if err != nil {
		app.Close()
		return nil, err
	}

	metrics := observability.NewMetrics(app.Registry)
	hooks := []domain.Hooks{metrics.Hooks()}
	if opts.Debug {
		hooks = append(hooks, observability.LoggingHooks(logger))
	}

	tk, err := teiinfo.New(cfg.Corpus,
		teiinfo.WithLogger(logger),
		teiinfo.WithStore(store),
		teiinfo.WithJava(tools),
		teiinfo.WithHooks(observability.Combine(hooks...)),
		teiinfo.WithWorkers(cfg.Workers),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error initializing toolkit: %w", err)
	}
	app.Toolkit = tk

	if cfg.Archive != "" {
		archive, err := loamadapter.Open(cfg.Archive)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Archive = archive
	}
	return app, nil
}

// Close releases the store connection and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) addCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

func createStore(cfg config.StoreConfig) (ports.AnalysisStore, error) {
	switch cfg.Backend {
	case "", config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreFile:
		return file.NewStore(cfg.Path), nil
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// loadTools reads the jing/trang registry. Without a tools file no Java tool
// is configured and validation fails with domain.ErrToolNotConfigured.
func loadTools(path string) (process.ConfigFile, error) {
	if path == "" {
		return process.ConfigFile{}, nil
	}
	return process.LoadConfig(path)
}

func defaultDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
