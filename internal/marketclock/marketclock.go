// Package marketclock shifts provider timestamps into the market
// timezone. The shift is baked into the epoch value on purpose: a
// client that renders the result "as UTC" displays local market time
// without doing its own timezone conversion.
package marketclock

import (
	"fmt"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

// DefaultTimezone is the fixed market timezone for the built-in
// providers (US equities).
const DefaultTimezone = "America/New_York"

// Clock resolves offsets against one market timezone.
type Clock struct {
	loc *time.Location
}

// New loads the timezone by IANA name.
func New(name string) (*Clock, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Clock{loc: loc}, nil
}

// Normalize returns epochMs shifted by the timezone's UTC offset at
// that specific instant. DST is respected: the offset differs between
// summer and winter timestamps.
func (c *Clock) Normalize(epochMs int64) int64 {
	t := time.UnixMilli(epochMs).In(c.loc)
	_, offsetSec := t.Zone()
	return epochMs + int64(offsetSec)*1000
}

// NormalizeCandles applies Normalize over a series in place.
func (c *Clock) NormalizeCandles(candles []model.Candle) {
	for i := range candles {
		candles[i].Time = c.Normalize(candles[i].Time)
	}
}
