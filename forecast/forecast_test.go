package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"finledger/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// constantHistory is n days of the same delta ending before start+n.
func constantHistory(start time.Time, n int, delta string) []ledger.DailyDelta {
	out := make([]ledger.DailyDelta, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ledger.DailyDelta{Date: start.AddDate(0, 0, i), Delta: amt(delta)})
	}
	return out
}

func TestForecast_ConstantHistory(t *testing.T) {
	history := constantHistory(day("2024-01-01"), 60, "10.00")

	f := New()
	result, err := f.Forecast(context.Background(), history, amt("1000.00"), 5)
	assert.NoError(t, err)

	assert.Equal(t, ModelEnsemble, result.Model)
	assert.Equal(t, 5, len(result.Points))

	// A perfectly flat history projects a straight line with a zero-width
	// band.
	assert.Equal(t, "1010.00", ledger.FormatAmount(result.Points[0].Value))
	assert.Equal(t, "1050.00", ledger.FormatAmount(result.Points[4].Value))
	assert.True(t, result.Points[4].Low.Equal(result.Points[4].High))

	// Dates continue day by day after the history window.
	assert.Equal(t, day("2024-03-01"), result.Points[0].Date)

	// With no seasonal variation every component is centered at zero.
	for _, w := range result.WeekdayAverages {
		assert.Equal(t, "0.00", ledger.FormatAmount(w))
	}
}

func TestForecast_Deterministic(t *testing.T) {
	history := []ledger.DailyDelta{
		{Date: day("2024-01-01"), Delta: amt("5.00")},
		{Date: day("2024-01-02"), Delta: amt("-3.00")},
		{Date: day("2024-01-03"), Delta: amt("12.00")},
		{Date: day("2024-01-04"), Delta: amt("0.00")},
		{Date: day("2024-01-05"), Delta: amt("-7.50")},
		{Date: day("2024-01-06"), Delta: amt("4.25")},
		{Date: day("2024-01-07"), Delta: amt("1.00")},
	}

	f := New()
	a, err := f.Forecast(context.Background(), history, amt("500.00"), 14)
	assert.NoError(t, err)
	b, err := f.Forecast(context.Background(), history, amt("500.00"), 14)
	assert.NoError(t, err)

	assert.Equal(t, len(a.Points), len(b.Points))
	for i := range a.Points {
		assert.True(t, a.Points[i].Value.Equal(b.Points[i].Value))
		assert.True(t, a.Points[i].Low.Equal(b.Points[i].Low))
		assert.True(t, a.Points[i].High.Equal(b.Points[i].High))
	}
}

func TestForecast_BandWidens(t *testing.T) {
	history := []ledger.DailyDelta{
		{Date: day("2024-01-01"), Delta: amt("100.00")},
		{Date: day("2024-01-02"), Delta: amt("-80.00")},
		{Date: day("2024-01-03"), Delta: amt("60.00")},
		{Date: day("2024-01-04"), Delta: amt("-40.00")},
		{Date: day("2024-01-05"), Delta: amt("90.00")},
	}

	f := &Forecaster{Model: ModelTrend}
	result, err := f.Forecast(context.Background(), history, amt("0.00"), 10)
	assert.NoError(t, err)

	width := func(p Point) decimal.Decimal { return p.High.Sub(p.Low) }
	assert.True(t, width(result.Points[0]).IsPositive())
	assert.True(t, width(result.Points[9]).GreaterThan(width(result.Points[0])))
}

func TestForecast_TrailingLookbackOnly(t *testing.T) {
	// Old history is noise; only the trailing window may matter.
	old := constantHistory(day("2023-01-01"), 30, "999.00")
	recent := constantHistory(day("2024-01-01"), 30, "10.00")

	f := &Forecaster{LookbackDays: 30, Model: ModelTrend}
	withOld, err := f.Forecast(context.Background(), append(old, recent...), amt("0.00"), 3)
	assert.NoError(t, err)
	withoutOld, err := f.Forecast(context.Background(), recent, amt("0.00"), 3)
	assert.NoError(t, err)

	for i := range withOld.Points {
		assert.True(t, withOld.Points[i].Value.Equal(withoutOld.Points[i].Value))
	}
}

func TestForecast_Validation(t *testing.T) {
	history := constantHistory(day("2024-01-01"), 10, "1.00")

	f := &Forecaster{Model: "prophet"}
	_, err := f.Forecast(context.Background(), history, decimal.Zero, 5)
	assert.Error(t, err)

	f = New()
	_, err = f.Forecast(context.Background(), history, decimal.Zero, 0)
	assert.Error(t, err)

	_, err = f.Forecast(context.Background(), nil, decimal.Zero, 5)
	assert.Error(t, err)
}

func TestForecast_Cancellation(t *testing.T) {
	history := constantHistory(day("2024-01-01"), 10, "1.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Forecast(ctx, history, decimal.Zero, 365)
	assert.IsError(t, err, context.Canceled)
}

func TestProjectNetWorth(t *testing.T) {
	nets := []decimal.Decimal{amt("400.00"), amt("300.00"), amt("500.00")}

	p, err := ProjectNetWorth(amt("10000.00"), nets, ledger.Period{Year: 2024, Month: time.June}, 3)
	assert.NoError(t, err)

	assert.Equal(t, 3, len(p.Baseline))
	assert.Equal(t, ledger.Period{Year: 2024, Month: time.July}, p.Baseline[0].Period)

	// Average net of 400 compounds forward each month.
	assert.Equal(t, "10400.00", ledger.FormatAmount(p.Baseline[0].Value))
	assert.Equal(t, "11200.00", ledger.FormatAmount(p.Baseline[2].Value))

	assert.Equal(t, "10300.00", ledger.FormatAmount(p.Conservative[0].Value))
	assert.Equal(t, "10500.00", ledger.FormatAmount(p.Aggressive[0].Value))

	// The projection crosses the year boundary cleanly.
	p2, err := ProjectNetWorth(amt("0.00"), nets, ledger.Period{Year: 2024, Month: time.December}, 2)
	assert.NoError(t, err)
	assert.Equal(t, ledger.Period{Year: 2025, Month: time.January}, p2.Baseline[0].Period)

	_, err = ProjectNetWorth(decimal.Zero, nets, ledger.Period{Year: 2024, Month: time.June}, 0)
	assert.Error(t, err)
}

func TestTrailingMonthlyNets(t *testing.T) {
	nets := map[ledger.Period]decimal.Decimal{
		{Year: 2024, Month: time.March}: amt("100.00"),
		{Year: 2024, Month: time.April}: amt("200.00"),
	}

	out := TrailingMonthlyNets(nets, day("2024-05-15"), 3)
	assert.Equal(t, 3, len(out))
	// February has no entry and contributes zero.
	assert.True(t, out[0].IsZero())
	assert.Equal(t, "100.00", ledger.FormatAmount(out[1]))
	assert.Equal(t, "200.00", ledger.FormatAmount(out[2]))
}
