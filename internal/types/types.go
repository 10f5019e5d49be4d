// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

type GetPricesReq struct {
	// Symbols is a comma separated list, e.g. "TCS.NS,RELIANCE.NS".
	Symbols string `form:"symbols"`
	Force   bool   `form:"force,optional"`
}

type PriceItem struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        *int64  `json:"volume,omitempty"`
	AsOfMs        int64   `json:"as_of_ms"`
}

type GetPricesResp struct {
	Prices map[string]PriceItem `json:"prices"`
	// Missing lists requested symbols with no data at all. Clients must not
	// treat them as zero prices.
	Missing []string `json:"missing,omitempty"`
}

type MarketStatusResp struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Session     string `json:"session"`
	NextEvent   string `json:"next_event"`
	NextEventAt string `json:"next_event_at"`
}

type SchedulerStatusResp struct {
	Running          bool   `json:"running"`
	Session          string `json:"session"`
	IntervalSeconds  int    `json:"interval_seconds"`
	CoolingDown      bool   `json:"cooling_down"`
	LastCycleAt      string `json:"last_cycle_at,omitempty"`
	LastCycleSymbols int    `json:"last_cycle_symbols"`
	TotalUpdates     int64  `json:"total_updates"`
	ErrorStreak      int    `json:"error_streak"`
}

type SchedulerActionResp struct {
	Running bool   `json:"running"`
	Message string `json:"message"`
}
