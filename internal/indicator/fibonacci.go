package indicator

import (
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

var (
	retracementRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}
	extensionRatios   = []float64{1.618, 2.618, 4.236}
	spiralRatios      = []float64{1.618, 2.618, 0.618, 0.382}
)

// FibonacciLevels derives retracement and extension levels from the
// full high/low range of a series plus the latest close. Ratio 0 sits
// at the range high, ratio 1.0 at the range low. Nil on empty input.
func FibonacciLevels(highs, lows []float64, currentPrice float64) *model.Fibonacci {
	if len(highs) == 0 || len(lows) == 0 {
		return nil
	}
	high := highs[0]
	for _, h := range highs[1:] {
		if h > high {
			high = h
		}
	}
	low := lows[0]
	for _, l := range lows[1:] {
		if l < low {
			low = l
		}
	}
	return buildLevels(high, low, currentPrice)
}

// AnchoredFibonacci is the alternate anchor-candle mode: the range is
// measured from the first candle of the latest calendar year in the
// series. A bullish anchor (close >= open) measures from the anchor low
// up to the highest high since; a bearish anchor from the anchor high
// down to the lowest low since.
func AnchoredFibonacci(candles []model.Candle) *model.Fibonacci {
	if len(candles) == 0 {
		return nil
	}
	year := yearOf(candles[len(candles)-1].Time)
	start := 0
	for i, c := range candles {
		if yearOf(c.Time) == year {
			start = i
			break
		}
	}
	anchor := candles[start]
	since := candles[start:]

	var high, low float64
	if anchor.Close >= anchor.Open {
		low = anchor.Low
		high = since[0].High
		for _, c := range since[1:] {
			if c.High > high {
				high = c.High
			}
		}
	} else {
		high = anchor.High
		low = since[0].Low
		for _, c := range since[1:] {
			if c.Low < low {
				low = c.Low
			}
		}
	}
	return buildLevels(high, low, candles[len(candles)-1].Close)
}

func buildLevels(high, low, currentPrice float64) *model.Fibonacci {
	diff := high - low

	fib := &model.Fibonacci{
		High:         high,
		Low:          low,
		CurrentPrice: currentPrice,
	}
	for _, r := range retracementRatios {
		fib.Retracements = append(fib.Retracements, model.FibonacciLevel{
			Ratio: r,
			Price: high - diff*r,
		})
	}
	for _, r := range extensionRatios {
		fib.Extensions = append(fib.Extensions, model.FibonacciLevel{
			Ratio: r,
			Price: high + diff*r,
		})
	}
	for _, r := range spiralRatios {
		fib.SpiralTargets = append(fib.SpiralTargets, currentPrice*r)
	}

	level382 := high - diff*0.382
	level618 := high - diff*0.618
	switch {
	case currentPrice > level382:
		fib.Position = "above_382"
	case currentPrice < level618:
		fib.Position = "below_618"
	default:
		fib.Position = "between_382_618"
	}
	return fib
}

// yearOf extracts the calendar year from a tz-baked epoch-ms timestamp.
// Baked timestamps render market-local time when read as UTC, so UTC is
// the correct frame here.
func yearOf(epochMs int64) int {
	return time.UnixMilli(epochMs).UTC().Year()
}
