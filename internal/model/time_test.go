package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityTime(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"empty string", "", 0, false},
		{"garbage string", "not-a-time", 0, false},
		{"millis float", 1700000000000.0, 1700000000000, true},
		{"seconds float", 1700000000.0, 1700000000000, true},
		{"millis int64", int64(1700000000123), 1700000000123, true},
		{"seconds int", 1700000000, 1700000000000, true},
		{"small number", 12345.0, 0, false},
		{"negative", -5.0, 0, false},
		{"rfc3339", "2023-11-14T22:13:20Z", 1700000000000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseActivityTime(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDayBoundsUTC(t *testing.T) {
	start, end, ok := DayBoundsUTC("2024-03-10")
	require.True(t, ok)
	assert.Equal(t, int64(24*time.Hour/time.Millisecond), end-start)
	assert.Equal(t, "2024-03-10", DayUTC(start))
	assert.Equal(t, "2024-03-10", DayUTC(end-1))
	assert.Equal(t, "2024-03-11", DayUTC(end))

	_, _, ok = DayBoundsUTC("10/03/2024")
	assert.False(t, ok)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.123, Round3(0.1234))
	assert.Equal(t, 0.124, Round3(0.1235))
	assert.Equal(t, -0.124, Round3(-0.1235))
	assert.Equal(t, 1.0, Round3(0.99951))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.5, Clamp01(0.5))
}
