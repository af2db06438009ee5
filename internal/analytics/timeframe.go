package analytics

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// Timeframe is a dashboard lookback window.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe3d  Timeframe = "3d"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe3m  Timeframe = "3m"
	Timeframe6m  Timeframe = "6m"
	Timeframe12m Timeframe = "12m"
	TimeframeAll Timeframe = "all"
)

var timeframeDays = map[Timeframe]int{
	Timeframe24h: 1,
	Timeframe3d:  3,
	Timeframe7d:  7,
	Timeframe30d: 30,
	Timeframe3m:  90,
	Timeframe6m:  180,
	Timeframe12m: 365,
}

// ParseTimeframe accepts the known windows; empty means all.
func ParseTimeframe(value string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(value)))
	if tf == "" || tf == TimeframeAll {
		return TimeframeAll, nil
	}
	if _, ok := timeframeDays[tf]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown timeframe %q", value)).
			WithDetails(map[string]any{"field": "timeframe"})
	}
	return tf, nil
}

// Start returns the first date inside the window, or nil for all time.
func (tf Timeframe) Start(reference time.Time) *time.Time {
	days, ok := timeframeDays[tf]
	if !ok {
		return nil
	}
	start := reference.UTC().AddDate(0, 0, -days)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return &start
}
