package arcade

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/germanamz/gridrop/pkg/game"
)

// Store kinds accepted in StoreConfig.Kind.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the top-level arcade configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Games   GamesConfig   `yaml:"games"`
	AI      AIConfig      `yaml:"ai"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AIConfig bounds AI searches.
type AIConfig struct {
	Timeout string `yaml:"timeout"` // Per-move search budget as a duration string (e.g. "2s"); empty means unbounded.
}

// TimeoutDuration parses Timeout. An empty Timeout yields zero.
func (a AIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("arcade: config: ai timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("arcade: config: ai timeout must be positive, got %s", d)
	}

	return d, nil
}

// StoreConfig selects where sessions are persisted.
type StoreConfig struct {
	Kind      string `yaml:"kind"`       // memory, file, sqlite or redis (default memory).
	Path      string `yaml:"path"`       // File or database path for file and sqlite.
	RedisURL  string `yaml:"redis_url"`  // e.g. redis://localhost:6379/0.
	KeyPrefix string `yaml:"key_prefix"` // Prepended to every persisted key.
}

// GamesConfig enables individual games.
type GamesConfig struct {
	Connect4 GameConfig `yaml:"connect4"`
	Toot     GameConfig `yaml:"toot"`
}

// GameConfig holds per-game settings.
type GameConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Enabled returns the enabled game kinds in a stable order.
func (g GamesConfig) Enabled() []game.Kind {
	var kinds []game.Kind
	if g.Connect4.Enabled {
		kinds = append(kinds, game.Connect4)
	}
	if g.Toot.Enabled {
		kinds = append(kinds, game.TootOtto)
	}

	return kinds
}

// DefaultConfig returns an in-memory configuration with both games enabled.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Kind: StoreMemory},
		Games: GamesConfig{
			Connect4: GameConfig{Enabled: true},
			Toot:     GameConfig{Enabled: true},
		},
		Metrics: MetricsConfig{Namespace: "gridrop"},
	}
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so connection strings can live in the environment (e.g.
// loaded with LoadDotEnv).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("arcade: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("arcade: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case "", StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("arcade: config: store %q: path is required", c.Store.Kind)
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("arcade: config: store %q: redis_url is required", c.Store.Kind)
		}
	default:
		return fmt.Errorf("arcade: config: unknown store kind %q", c.Store.Kind)
	}

	if _, err := c.AI.TimeoutDuration(); err != nil {
		return err
	}

	if len(c.Games.Enabled()) == 0 {
		return fmt.Errorf("arcade: config: at least one game must be enabled")
	}

	return nil
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
