package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestValidAmount(t *testing.T) {
	assert.True(t, ValidAmount(amt("10.00")))
	assert.True(t, ValidAmount(amt("10.5")))
	assert.True(t, ValidAmount(amt("-0.01")))
	assert.True(t, ValidAmount(amt("100")))
	assert.False(t, ValidAmount(amt("10.005")))
	assert.False(t, ValidAmount(amt("-0.001")))
}

func TestFormatAmount_BankersRounding(t *testing.T) {
	// Half-even: .005 rounds toward the even cent in both directions.
	assert.Equal(t, "2.00", FormatAmount(amt("2")))
	assert.Equal(t, "2.02", FormatAmount(amt("2.025")))
	assert.Equal(t, "2.04", FormatAmount(amt("2.035")))
	assert.Equal(t, "-2.02", FormatAmount(amt("-2.025")))
}

func TestPercent_NilOnZeroWhole(t *testing.T) {
	assert.Zero(t, Percent(amt("10"), amt("0")))

	p := Percent(amt("750.00"), amt("1000.00"))
	assert.NotZero(t, p)
	assert.Equal(t, "75", p.String())
}
