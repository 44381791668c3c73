// Package forecast projects short-horizon cashflow from historical daily
// balance deltas and long-horizon net worth from monthly nets.
//
// The cashflow model decomposes history into a weekday component, a
// day-of-month component and a linear baseline trend, then projects forward
// with a confidence band derived from the residual standard deviation. The
// forecast is deterministic for a given history window and model name.
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// Model names accepted by the forecaster.
const (
	ModelEnsemble = "ensemble" // trend plus both seasonal components
	ModelTrend    = "trend"    // linear baseline only
)

// DefaultLookbackDays is the default history window.
const DefaultLookbackDays = 180

// confidenceZ is the one-sided 95% normal quantile used for the band.
const confidenceZ = 1.645

// Point is one forecast day with its confidence band.
type Point struct {
	Date  time.Time
	Value decimal.Decimal
	Low   decimal.Decimal
	High  decimal.Decimal
}

// Result is a complete cashflow forecast.
type Result struct {
	Model            string
	LookbackDays     int
	Points           []Point
	WeekdayAverages  [7]decimal.Decimal  // Sunday..Saturday
	MonthdayAverages [31]decimal.Decimal // day 1..31
}

// Forecaster configures the cashflow model.
type Forecaster struct {
	LookbackDays int
	Model        string
}

// New returns a forecaster with default lookback and the ensemble model.
func New() *Forecaster {
	return &Forecaster{LookbackDays: DefaultLookbackDays, Model: ModelEnsemble}
}

// Forecast projects the balance for the given number of days after the end
// of the history window. History is the dense daily-delta series; only the
// trailing lookback window is consulted, so a longer history never changes
// already-elapsed actuals, only the projection forward. The context is
// checked between days so long projections can be cancelled.
func (f *Forecaster) Forecast(ctx context.Context, history []ledger.DailyDelta, startingBalance decimal.Decimal, days int) (*Result, error) {
	model := f.Model
	if model == "" {
		model = ModelEnsemble
	}
	if model != ModelEnsemble && model != ModelTrend {
		return nil, fmt.Errorf("unknown forecast model %q", model)
	}
	lookback := f.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	if days <= 0 {
		return nil, fmt.Errorf("forecast days must be positive, got %d", days)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("forecast requires at least one day of history")
	}

	if len(history) > lookback {
		history = history[len(history)-lookback:]
	}

	deltas := make([]float64, len(history))
	for i, d := range history {
		deltas[i], _ = d.Delta.Float64()
	}

	weekday, monthday := seasonalComponents(history, deltas)
	slope, intercept := linearRegression(deltas)

	predict := func(offset int, date time.Time) float64 {
		v := intercept + slope*float64(len(deltas)+offset)
		if model == ModelEnsemble {
			v += weekday[int(date.Weekday())]
			v += monthday[date.Day()-1]
		}
		return v
	}

	// Residuals against the in-sample fit drive the band width.
	residStd := residualStd(history, deltas, func(i int, date time.Time) float64 {
		v := intercept + slope*float64(i)
		if model == ModelEnsemble {
			v += weekday[int(date.Weekday())]
			v += monthday[date.Day()-1]
		}
		return v
	})

	result := &Result{Model: model, LookbackDays: lookback}
	for i := range result.WeekdayAverages {
		result.WeekdayAverages[i] = decimal.NewFromFloat(weekday[i]).RoundBank(2)
	}
	for i := range result.MonthdayAverages {
		result.MonthdayAverages[i] = decimal.NewFromFloat(monthday[i]).RoundBank(2)
	}

	lastDay := history[len(history)-1].Date
	balance, _ := startingBalance.Float64()
	for i := 1; i <= days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := lastDay.AddDate(0, 0, i)
		balance += predict(i, date)
		margin := confidenceZ * residStd * math.Sqrt(float64(i))

		result.Points = append(result.Points, Point{
			Date:  date,
			Value: decimal.NewFromFloat(balance).RoundBank(2),
			Low:   decimal.NewFromFloat(balance - margin).RoundBank(2),
			High:  decimal.NewFromFloat(balance + margin).RoundBank(2),
		})
	}
	return result, nil
}

// seasonalComponents averages deltas per weekday and per day of month,
// centered on the overall mean so the components carry only the seasonal
// shape. Short months simply contribute fewer samples to the high buckets.
func seasonalComponents(history []ledger.DailyDelta, deltas []float64) (weekday [7]float64, monthday [31]float64) {
	mean := 0.0
	for _, v := range deltas {
		mean += v
	}
	mean /= float64(len(deltas))

	var weekdaySum [7]float64
	var weekdayCount [7]int
	var monthdaySum [31]float64
	var monthdayCount [31]int

	for i, d := range history {
		w := int(d.Date.Weekday())
		weekdaySum[w] += deltas[i]
		weekdayCount[w]++
		m := d.Date.Day() - 1
		monthdaySum[m] += deltas[i]
		monthdayCount[m]++
	}

	for i := range weekday {
		if weekdayCount[i] > 0 {
			weekday[i] = weekdaySum[i]/float64(weekdayCount[i]) - mean
		}
	}
	for i := range monthday {
		if monthdayCount[i] > 0 {
			monthday[i] = monthdaySum[i]/float64(monthdayCount[i]) - mean
		}
	}
	return weekday, monthday
}

// linearRegression fits y = intercept + slope*x over the series index.
func linearRegression(points []float64) (slope, intercept float64) {
	n := float64(len(points))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, points[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range points {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func residualStd(history []ledger.DailyDelta, deltas []float64, fitted func(i int, date time.Time) float64) float64 {
	if len(deltas) < 2 {
		return 0
	}
	var sumSq float64
	for i, d := range history {
		r := deltas[i] - fitted(i, d.Date)
		sumSq += r * r
	}
	return math.Sqrt(sumSq / float64(len(deltas)))
}
