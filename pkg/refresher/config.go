package refresher

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stocksim-api/pkg/calendar"
	"stocksim-api/pkg/confkit"
)

// Config tunes the background refresh loop. Intervals are per session kind:
// tight while the market trades, relaxed off-hours.
type Config struct {
	OpenIntervalSeconds      int `yaml:"open_interval_seconds"`
	PreMarketIntervalSeconds int `yaml:"pre_market_interval_seconds"`
	ClosedIntervalSeconds    int `yaml:"closed_interval_seconds"`

	// MajorSymbols are always part of the refresh cohort, on top of the
	// active symbols pulled from the store.
	MajorSymbols []string `yaml:"major_symbols"`
	// ActiveLimit caps how many store-listed active symbols join a cycle.
	ActiveLimit int `yaml:"active_limit"`

	// CooldownThreshold is the consecutive-error-cycle count after which the
	// loop backs off to CooldownSeconds instead of the session interval.
	CooldownThreshold int `yaml:"cooldown_threshold"`
	CooldownSeconds   int `yaml:"cooldown_seconds"`
}

// Default returns the stock refresh policy: 20s while open, 60s pre-market,
// 5m closed, cooldown after 5 bad cycles.
func Default() Config {
	return Config{
		OpenIntervalSeconds:      20,
		PreMarketIntervalSeconds: 60,
		ClosedIntervalSeconds:    300,
		MajorSymbols: []string{
			"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "ICICIBANK.NS",
		},
		ActiveLimit:       50,
		CooldownThreshold: 5,
		CooldownSeconds:   120,
	}
}

// LoadConfig reads a refresher configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open refresher config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads refresher configuration from the default project location
// and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/refresher.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read refresher config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal refresher config: %w", err)
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandEnv() {
	for i, sym := range c.MajorSymbols {
		c.MajorSymbols[i] = strings.TrimSpace(os.ExpandEnv(sym))
	}
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if c.OpenIntervalSeconds <= 0 || c.PreMarketIntervalSeconds <= 0 || c.ClosedIntervalSeconds <= 0 {
		return fmt.Errorf("refresher config: all intervals must be positive")
	}
	if c.OpenIntervalSeconds > c.PreMarketIntervalSeconds || c.PreMarketIntervalSeconds > c.ClosedIntervalSeconds {
		return fmt.Errorf("refresher config: intervals must not shrink as the market winds down")
	}
	if c.CooldownThreshold <= 0 {
		return fmt.Errorf("refresher config: cooldown_threshold must be positive")
	}
	if c.CooldownSeconds <= 0 {
		return fmt.Errorf("refresher config: cooldown_seconds must be positive")
	}
	if c.ActiveLimit < 0 {
		return fmt.Errorf("refresher config: active_limit must not be negative")
	}
	return nil
}

// Budget describes the outbound call capacity the refresh loop must fit in:
// the quote-source rate limit plus its batching factor.
type Budget struct {
	MaxCalls      int
	WindowSeconds int
	BatchSize     int
}

// CheckBudget verifies the steady-state call demand of the busiest interval
// stays inside the rate limit. It guards against a config that would make the
// scheduler starve interactive traffic.
func (c *Config) CheckBudget(b Budget) error {
	if b.MaxCalls <= 0 || b.WindowSeconds <= 0 {
		return nil
	}
	batch := b.BatchSize
	if batch <= 0 {
		batch = 1
	}
	cohort := len(c.MajorSymbols) + c.ActiveLimit
	if cohort == 0 {
		return nil
	}
	callsPerCycle := (cohort + batch - 1) / batch
	// Worst case is the open-market interval.
	demand := float64(callsPerCycle) / float64(c.OpenIntervalSeconds)
	capacity := float64(b.MaxCalls) / float64(b.WindowSeconds)
	if demand > capacity {
		return fmt.Errorf("refresher config: %d symbols need %d calls per %ds cycle, exceeding the %d/%ds rate limit",
			cohort, callsPerCycle, c.OpenIntervalSeconds, b.MaxCalls, b.WindowSeconds)
	}
	return nil
}

func (c *Config) intervalFor(kind calendar.Kind) time.Duration {
	switch kind {
	case calendar.KindRegular:
		return time.Duration(c.OpenIntervalSeconds) * time.Second
	case calendar.KindPreMarket:
		return time.Duration(c.PreMarketIntervalSeconds) * time.Second
	default:
		return time.Duration(c.ClosedIntervalSeconds) * time.Second
	}
}

func (c *Config) cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}
