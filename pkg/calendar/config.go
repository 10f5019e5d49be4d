package calendar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stocksim-api/pkg/confkit"
)

// Config describes the exchange trading calendar: timezone, session windows
// and the holiday table. All times are wall-clock values in Timezone.
type Config struct {
	Timezone string `yaml:"timezone"`
	// Session windows in "HH:MM" form.
	PreOpen string `yaml:"pre_open"`
	Open    string `yaml:"open"`
	Close   string `yaml:"close"`

	Holidays []Holiday `yaml:"holidays"`
}

// Holiday marks a single non-trading weekday.
type Holiday struct {
	Date string `yaml:"date"` // YYYY-MM-DD in the exchange timezone
	Name string `yaml:"name"`
}

// Default returns the NSE/BSE calendar the application ships with:
// regular session 09:15-15:30 IST, pre-market 09:00-09:15, plus the major
// exchange holidays for 2025.
func Default() Config {
	return Config{
		Timezone: "Asia/Kolkata",
		PreOpen:  "09:00",
		Open:     "09:15",
		Close:    "15:30",
		Holidays: []Holiday{
			{Date: "2025-01-26", Name: "Republic Day"},
			{Date: "2025-03-14", Name: "Holi"},
			{Date: "2025-04-06", Name: "Ram Navami"},
			{Date: "2025-04-18", Name: "Good Friday"},
			{Date: "2025-05-01", Name: "Maharashtra Day"},
			{Date: "2025-08-15", Name: "Independence Day"},
			{Date: "2025-08-29", Name: "Ganesh Chaturthi"},
			{Date: "2025-10-02", Name: "Gandhi Jayanti"},
			{Date: "2025-11-01", Name: "Diwali Balipratipada"},
			{Date: "2025-11-05", Name: "Guru Nanak Jayanti"},
			{Date: "2025-12-25", Name: "Christmas"},
		},
	}
}

// LoadConfig reads a calendar configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calendar config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads calendar configuration from the default project location
// and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/calendar.yaml")
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
		return nil, fmt.Errorf("read calendar config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal calendar config: %w", err)
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandEnv() {
	c.Timezone = strings.TrimSpace(os.ExpandEnv(c.Timezone))
	c.PreOpen = strings.TrimSpace(os.ExpandEnv(c.PreOpen))
	c.Open = strings.TrimSpace(os.ExpandEnv(c.Open))
	c.Close = strings.TrimSpace(os.ExpandEnv(c.Close))
}

// Validate ensures the configuration is structurally sound. Violations are
// construction-time failures; the calendar has no runtime error paths.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Timezone) == "" {
		return fmt.Errorf("calendar config: timezone is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("calendar config: invalid timezone %q: %w", c.Timezone, err)
	}
	preOpen, err := parseClock(c.PreOpen)
	if err != nil {
		return fmt.Errorf("calendar config: invalid pre_open %q: %w", c.PreOpen, err)
	}
	open, err := parseClock(c.Open)
	if err != nil {
		return fmt.Errorf("calendar config: invalid open %q: %w", c.Open, err)
	}
	closeAt, err := parseClock(c.Close)
	if err != nil {
		return fmt.Errorf("calendar config: invalid close %q: %w", c.Close, err)
	}
	if !(preOpen <= open && open < closeAt) {
		return fmt.Errorf("calendar config: session windows must satisfy pre_open <= open < close")
	}
	for _, h := range c.Holidays {
		if _, err := time.Parse("2006-01-02", h.Date); err != nil {
			return fmt.Errorf("calendar config: invalid holiday date %q: %w", h.Date, err)
		}
	}
	return nil
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(v string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
