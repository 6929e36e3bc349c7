package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApproximateConvert(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want Date
	}{
		{"mid Asoj", time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), Date{2083, 6, 19}},
		{"new year", time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC), Date{2083, 1, 1}},
		{"day before new year", time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC), Date{2082, 12, 30}},
		{"poush across gregorian year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Date{2082, 9, 17}},
		{"time of day ignored", time.Date(2026, 10, 5, 23, 59, 0, 0, time.UTC), Date{2083, 6, 19}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Approximate{}.Convert(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	got := Approximate{}.Format(time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "२०८३ साल असोज १९ गते", got)
	assert.Equal(t, "", Approximate{}.Format(time.Time{}))
}

func TestNepaliDigits(t *testing.T) {
	assert.Equal(t, "२०८२", NepaliDigits(2082))
	assert.Equal(t, "-५", NepaliDigits(-5))
}
