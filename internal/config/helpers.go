package config

import (
	"stocksim-api/pkg/calendar"
	"stocksim-api/pkg/quote"
	"stocksim-api/pkg/refresher"
)

// MustLoadQuote loads etc/quote.yaml from the project root and panics on
// error. It isolates quote config so tests only needing the sources do not
// have to carry the full application config.
func MustLoadQuote() *quote.Config {
	return quote.MustLoad()
}

// MustBuildQuoteSources loads quote config from the default path and builds
// source instances; returns the map and default source name.
func MustBuildQuoteSources() (map[string]quote.Source, string) {
	cfg := MustLoadQuote()
	sources, err := cfg.BuildSources()
	if err != nil {
		panic(err)
	}
	return sources, cfg.Default
}

// MustLoadCalendar loads etc/calendar.yaml from the project root and panics
// on error.
func MustLoadCalendar() *calendar.Config {
	return calendar.MustLoad()
}

// MustLoadRefresher loads the default refresher configuration and panics on
// error.
func MustLoadRefresher() *refresher.Config {
	return refresher.MustLoad()
}
