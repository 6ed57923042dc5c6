package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/file"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/pkg/adapters/llm"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/adapters/pdf"
	"github.com/aretw0/lendflow/pkg/adapters/redis"
	"github.com/aretw0/lendflow/pkg/observability"
	"github.com/aretw0/lendflow/pkg/persistence/middleware"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/session"
)

// App holds the wired engine and its collaborators for one CLI invocation.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *lendflow.Engine
	Sessions *session.Manager
	Registry *prometheus.Registry

	closers []func() error
}

// NewApp builds the engine, the session store chain and the metrics registry from cfg.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	sessions, err := app.newSessions()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Sessions = sessions

	engineOpts := []lendflow.Option{
		lendflow.WithLogger(logger),
		lendflow.WithLifecycleHooks(metrics.Hooks().Merge(observability.LogHooks(logger))),
		lendflow.WithArtifactGenerator(app.newLetters()),
	}
	if p := app.newPhraser(); p != nil {
		engineOpts = append(engineOpts, lendflow.WithPhraser(p))
	}
	if cfg.Assistant.Timeout > 0 {
		engineOpts = append(engineOpts, lendflow.WithPhraseTimeout(cfg.Assistant.Timeout))
	}
	app.Engine = lendflow.New(engineOpts...)

	return app, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newSessions() (*session.Manager, error) {
	cfg := a.Config
	opts := []session.Option{session.WithLogger(a.Logger)}

	var store ports.SessionStore
	switch cfg.Store.Backend {
	case config.BackendFile:
		store = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		prefix := cfg.Store.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.Store.TTL),
		)
		a.closers = append(a.closers, rs.Close)
		store = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), prefix)))
	default:
		store = memory.NewStore()
	}

	// The audit mirror sits outside encryption so it masks plaintext.
	var mws []middleware.Middleware
	if cfg.Security.MaskPII {
		audit := middleware.NewPIIMiddleware(nil)(file.New(cfg.Security.AuditDir))
		mws = append(mws, middleware.NewMirrorMiddleware(audit))
	}
	key, err := cfg.Security.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	a.Logger.Debug("session store ready", "backend", cfg.Store.Backend, "encrypted", key != nil, "audit", cfg.Security.MaskPII)
	return session.NewManager(middleware.Chain(store, mws...), opts...), nil
}

func (a *App) newLetters() ports.ArtifactGenerator {
	opts := []pdf.Option{pdf.WithLogger(a.Logger)}
	if a.Config.Artifact.MaskPAN {
		opts = append(opts, pdf.WithMaskedPAN())
	}
	return pdf.New(a.Config.Artifact.Dir, opts...)
}

func (a *App) newPhraser() ports.Phraser {
	cfg := a.Config.Assistant
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		a.Logger.Warn("assistant enabled without an API key, using fixed prompts")
		return nil
	}
	opts := []llm.Option{llm.WithLogger(a.Logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}
	return llm.New(cfg.APIKey, opts...)
}
