package chart

// DailyResponse is the chart API payload for a multi-symbol daily request.
// Quotes carries one series per resolved symbol; Errors carries a reason code
// per failed symbol. A requested symbol may appear in neither map.
type DailyResponse struct {
	Quotes map[string]Series `json:"quotes"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Reason codes used in DailyResponse.Errors.
const (
	reasonNotFound = "not_found"
	reasonNoData   = "no_data"
)

// Series is one symbol's daily bars, oldest first. Entries align by index;
// a null close marks a bar with no trade data.
type Series struct {
	Timestamps []int64    `json:"timestamps"` // unix seconds, bar open
	Closes     []*float64 `json:"closes"`
	Volumes    []*int64   `json:"volumes,omitempty"`
}

// Bar is one usable daily close extracted from a Series.
type Bar struct {
	Timestamp int64
	Close     float64
	Volume    *int64
}

// bars filters a series down to bars with a positive close, ordered oldest
// first. Daily series only contain trading-day bars, so the last two entries
// are the two most recent trading-day closes.
func (s Series) bars() []Bar {
	out := make([]Bar, 0, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		if i >= len(s.Closes) || s.Closes[i] == nil || *s.Closes[i] <= 0 {
			continue
		}
		bar := Bar{Timestamp: ts, Close: *s.Closes[i]}
		if i < len(s.Volumes) && s.Volumes[i] != nil {
			bar.Volume = s.Volumes[i]
		}
		out = append(out, bar)
	}
	return out
}
