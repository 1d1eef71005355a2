package arcade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
	"github.com/germanamz/gridrop/pkg/kv"
	"github.com/germanamz/gridrop/pkg/kv/rediskv"
	"github.com/germanamz/gridrop/pkg/kv/sqlitekv"
	"github.com/germanamz/gridrop/pkg/session"
)

// Options carries the dependencies Arcade does not build from Config.
type Options struct {
	// Engines supplies the engine for each game kind. Every enabled game
	// must have one.
	Engines map[game.Kind]engine.Engine
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// Registerer receives the metrics collectors when metrics are enabled.
	// Defaults to a private registry, exposed through Arcade.Gatherer, so
	// several arcades can live in one process.
	Registerer prometheus.Registerer
	// Store overrides the store described by Config.Store.
	Store kv.Store
}

// Arcade owns the store and one session controller per enabled game.
type Arcade struct {
	cfg         Config
	log         *slog.Logger
	store       kv.Store
	ownsStore   bool
	events      *EventBus
	metrics     *Metrics
	gatherer    prometheus.Gatherer
	controllers map[game.Kind]*session.Controller
}

// New creates an Arcade from cfg. It validates the config, opens the store
// and builds the controllers.
func New(ctx context.Context, cfg Config, opts Options) (*Arcade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Arcade{
		cfg:         cfg,
		log:         opts.Logger,
		events:      NewEventBus(),
		controllers: make(map[game.Kind]*session.Controller),
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}

	for _, kind := range cfg.Games.Enabled() {
		eng := opts.Engines[kind]
		if eng == nil {
			return nil, fmt.Errorf("arcade: game %q: no engine: %w", kind, game.ErrInvalidArgument)
		}
		if eng.Kind() != kind {
			return nil, fmt.Errorf("arcade: game %q: engine plays %q: %w", kind, eng.Kind(), game.ErrInvalidArgument)
		}
	}

	if opts.Store != nil {
		a.store = opts.Store
	} else {
		store, err := OpenStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.ownsStore = true
	}

	observers := session.Observers{a.events}

	if cfg.Metrics.Enabled {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		if g, ok := reg.(prometheus.Gatherer); ok {
			a.gatherer = g
		}

		m, err := NewMetrics(cfg.Metrics.Namespace, reg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.metrics = m
		observers = append(observers, m)
	}

	aiMiddleware := []engine.Middleware{engine.Logger(a.log)}
	if d, _ := cfg.AI.TimeoutDuration(); d > 0 {
		aiMiddleware = append(aiMiddleware, engine.Timeout(d))
	}

	for _, kind := range cfg.Games.Enabled() {
		ctrl, err := session.NewController(opts.Engines[kind], a.store,
			session.WithLogger(a.log),
			session.WithObserver(observers),
			session.WithKeyPrefix(cfg.Store.KeyPrefix),
			session.WithAIMiddleware(aiMiddleware...),
		)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("arcade: game %q: %w", kind, err)
		}
		a.controllers[kind] = ctrl
	}

	a.log.InfoContext(ctx, "arcade ready", "store", storeKind(cfg.Store), "games", len(a.controllers))

	return a, nil
}

// OpenStore opens the store described by cfg.
func OpenStore(ctx context.Context, cfg StoreConfig) (kv.Store, error) {
	switch cfg.Kind {
	case "", StoreMemory:
		return &kv.Memory{}, nil
	case StoreFile:
		s, err := kv.OpenFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("arcade: open store: %w", err)
		}
		return s, nil
	case StoreSQLite:
		s, err := sqlitekv.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("arcade: open store: %w", err)
		}
		return s, nil
	case StoreRedis:
		s, err := rediskv.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("arcade: open store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("arcade: unknown store kind %q", cfg.Kind)
	}
}

func storeKind(cfg StoreConfig) string {
	if cfg.Kind == "" {
		return StoreMemory
	}
	return cfg.Kind
}

// Controller returns the controller for kind.
func (a *Arcade) Controller(kind game.Kind) (*session.Controller, error) {
	c, ok := a.controllers[kind]
	if !ok {
		return nil, fmt.Errorf("arcade: game %q is not enabled: %w", kind, game.ErrInvalidArgument)
	}

	return c, nil
}

// Games returns the enabled game kinds.
func (a *Arcade) Games() []game.Kind { return a.cfg.Games.Enabled() }

// Events returns the arcade's event bus.
func (a *Arcade) Events() *EventBus { return a.events }

// Metrics returns the metrics observer, or nil if metrics are disabled.
func (a *Arcade) Metrics() *Metrics { return a.metrics }

// Gatherer returns the registry holding the metrics, or nil if metrics are
// disabled or the configured Registerer cannot be gathered from.
func (a *Arcade) Gatherer() prometheus.Gatherer { return a.gatherer }

// Store returns the store sessions are persisted to.
func (a *Arcade) Store() kv.Store { return a.store }

// Close closes the event bus and, when Arcade opened it, the store.
func (a *Arcade) Close() error {
	a.events.Close()

	var errs []error
	if a.ownsStore {
		if err := kv.Close(a.store); err != nil {
			errs = append(errs, fmt.Errorf("arcade: close store: %w", err))
		}
	}

	return errors.Join(errs...)
}
