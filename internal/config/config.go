package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"
	"hearthstats/pkg/configutil"

	"github.com/joho/godotenv"
)

const FileName = "config.json5"

const (
	EnvCardApiKey  = "HEARTHSTATS_CARD_API_KEY"
	EnvAuthSession = "HEARTHSTATS_AUTH_SESSION"
	EnvDatabase    = "HEARTHSTATS_DB"
)

const (
	ReconcileExact  = "exact"
	ReconcileFolded = "folded"
)

type CardApiConfig struct {
	BaseUrl  string `json:"base_url"`
	Key      string `json:"key"`
	PageSize int    `json:"page_size"`
}

type HearthpwnConfig struct {
	BaseUrl           string  `json:"base_url"`
	Session           string  `json:"session"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	MaxRetries        int     `json:"max_retries"`
	RetryInitialMs    int     `json:"retry_initial_ms"`
}

func (c HearthpwnConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c HearthpwnConfig) RetryPolicy() scrapers.RetryPolicy {
	policy := scrapers.DefaultRetryPolicy()
	if c.MaxRetries >= 0 {
		policy.MaxRetries = uint64(c.MaxRetries)
	}
	if c.RetryInitialMs > 0 {
		policy.InitialInterval = time.Duration(c.RetryInitialMs) * time.Millisecond
	}
	return policy
}

type DecksConfig struct {
	Filter      string `json:"filter"`
	Sort        string `json:"sort"`
	Patch       int    `json:"patch"`
	Count       int    `json:"count"`
	PerClass    bool   `json:"per_class"`
	Concurrency int    `json:"concurrency"`
}

type CollectionConfig struct {
	// MaxCopies caps the owned count of a card, 0 disables the cap.
	MaxCopies int `json:"max_copies"`
}

type ReportConfig struct {
	CardSets   []string `json:"card_sets"`
	HideUnused bool     `json:"hide_unused"`
}

type NamesConfig struct {
	Reconcile string `json:"reconcile"`
}

type DatabaseConfig struct {
	File string `json:"file"`
}

type Config struct {
	CardApi    CardApiConfig    `json:"card_api"`
	Hearthpwn  HearthpwnConfig  `json:"hearthpwn"`
	Decks      DecksConfig      `json:"decks"`
	Collection CollectionConfig `json:"collection"`
	Report     ReportConfig     `json:"report"`
	Names      NamesConfig      `json:"names"`
	Database   DatabaseConfig   `json:"db"`
	Telemetry  telemetry.Config `json:"telemetry"`
}

func Default() Config {
	return Config{
		CardApi: CardApiConfig{
			BaseUrl:  "https://omgvamp-hearthstone-v1.p.mashape.com",
			PageSize: 500,
		},
		Hearthpwn: HearthpwnConfig{
			BaseUrl:           hearthpwn.DefaultBaseUrl,
			RequestsPerSecond: 2,
			TimeoutSeconds:    30,
			MaxRetries:        3,
			RetryInitialMs:    500,
		},
		Decks: DecksConfig{
			Filter:      hearthpwn.DefaultFilter,
			Sort:        hearthpwn.DefaultSort,
			Concurrency: 1,
		},
		Report: ReportConfig{
			CardSets: []string{
				"Classic",
				"Whispers of the Old Gods",
				"Mean Streets of Gadgetzan",
				"Journey to Un'Goro",
			},
		},
		Names: NamesConfig{
			Reconcile: ReconcileExact,
		},
		Database: DatabaseConfig{
			File: "hearthstats.db",
		},
	}
}

// Load reads the config file at path, or searches for config.json5 upwards
// from the working directory when path is empty. Missing files leave the
// defaults in place. Values from the environment (and a .env file) take
// precedence over the file.
func Load(path string) (Config, string, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, "", fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	var source string
	if path == "" {
		cfg, source, err = configutil.ReadRecursively(FileName, Default())
		if errors.Is(err, os.ErrNotExist) {
			cfg, source, err = Default(), "", nil
		}
	} else {
		cfg, err = configutil.ReadConfig(path, Default())
		source = path
	}
	if err != nil {
		return Config{}, "", fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	err = cfg.Validate()
	if err != nil {
		return Config{}, source, err
	}
	return cfg, source, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvCardApiKey); key != "" {
		c.CardApi.Key = key
	}
	if session := os.Getenv(EnvAuthSession); session != "" {
		c.Hearthpwn.Session = session
	}
	if file := os.Getenv(EnvDatabase); file != "" {
		c.Database.File = file
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.CardApi.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("card_api.page_size must be positive"))
	}
	if c.Hearthpwn.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("hearthpwn.requests_per_second must be positive"))
	}
	if c.Hearthpwn.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("hearthpwn.max_retries must not be negative"))
	}
	if c.Decks.Count < 0 {
		errs = append(errs, fmt.Errorf("decks.count must not be negative"))
	}
	if c.Decks.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("decks.concurrency must be at least 1"))
	}
	if c.Collection.MaxCopies < 0 {
		errs = append(errs, fmt.Errorf("collection.max_copies must not be negative"))
	}
	if c.Names.Reconcile != ReconcileExact && c.Names.Reconcile != ReconcileFolded {
		errs = append(errs, fmt.Errorf(
			"names.reconcile must be %q or %q, got %q",
			ReconcileExact, ReconcileFolded, c.Names.Reconcile,
		))
	}
	if c.Database.File == "" {
		errs = append(errs, fmt.Errorf("db.file must be set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteDefault writes the default config to path unless a file already
// exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	contents, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		err = os.MkdirAll(dir, 0777)
		if err != nil {
			return false, err
		}
	}
	header := fmt.Sprintf(
		"// credentials may also be given with %s and %s\n",
		EnvCardApiKey, EnvAuthSession,
	)
	err = os.WriteFile(path, append([]byte(header), contents...), 0600)
	if err != nil {
		return false, err
	}
	return true, nil
}
