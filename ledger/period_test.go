package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "2024-01", want: Period{Year: 2024, Month: time.January}},
		{input: "1999-12", want: Period{Year: 1999, Month: time.December}},
		{input: "2024-13", wantErr: true},
		{input: "2024-00", wantErr: true},
		{input: "24-01", wantErr: true},
		{input: "2024-1", wantErr: true},
		{input: "2024/01", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				var invalid *InvalidPeriodError
				assert.True(t, asErr(err, &invalid))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodWindow(t *testing.T) {
	p := Period{Year: 2024, Month: time.February}

	assert.Equal(t, "2024-02", p.String())
	assert.True(t, p.Contains(date("2024-02-29")))
	assert.False(t, p.Contains(date("2024-03-01")))
	assert.Equal(t, Period{Year: 2024, Month: time.March}, p.Next())
	assert.Equal(t, Period{Year: 2025, Month: time.January}, Period{Year: 2024, Month: time.December}.Next())
}
