package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProfileURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "https://LinkedIn.com/in/Jane-Doe", "https://linkedin.com/in/jane-doe"},
		{"strips query", "https://linkedin.com/in/jane?trk=feed", "https://linkedin.com/in/jane"},
		{"strips trailing slash", "https://linkedin.com/in/jane/", "https://linkedin.com/in/jane"},
		{"trims whitespace", "  https://linkedin.com/in/jane  ", "https://linkedin.com/in/jane"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProfileURL(tt.in))
		})
	}
}

func TestProfileURLHash(t *testing.T) {
	// Variants of the same profile hash identically.
	a := ProfileURLHash("https://linkedin.com/in/jane?trk=x")
	b := ProfileURLHash("https://LinkedIn.com/in/Jane/")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.Empty(t, ProfileURLHash(""))
	assert.NotEqual(t, a, ProfileURLHash("https://linkedin.com/in/john"))
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandConfirmed, BandFor(0.95))
	assert.Equal(t, BandConfirmed, BandFor(0.9))
	assert.Equal(t, BandHigh, BandFor(0.82))
	assert.Equal(t, BandMedium, BandFor(0.7))
	assert.Equal(t, BandLow, BandFor(0.59))
	assert.Equal(t, BandLow, BandFor(0))
}
