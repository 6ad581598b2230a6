package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		title string
		low   float64
		high  float64
		ok    bool
	}{
		{"≤31F", 0, 31, true},
		{"under 100", 0, 100, true},
		{"less than 50 posts", 0, 50, true},
		{"fewer than 1,200 tweets", 0, 1200, true},
		{"200+", 200, 400, true},
		{"over 1.5M views", 1.5e6, 3e6, true},
		{"at least 80", 80, 160, true},
		{"≥45", 45, 90, true},
		{"$150K+", 150000, 300000, true},
		{"100-119", 100, 119, true},
		{"32-33F", 32, 33, true},
		{"$100K-$150K", 100000, 150000, true},
		{"140–159", 140, 159, true}, // en dash
		{"60—79", 60, 79, true},     // em dash
		{"300 to 349 tweets", 300, 349, true},
		{"25M-50M views", 25e6, 50e6, true},
		{"no numbers here", 0, 0, false},
		{"together forever", 0, 0, false},
		{"Will it happen?", 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			r, ok := ParseRange(tc.title)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.low, r.Low, 1e-9)
				assert.InDelta(t, tc.high, r.High, 1e-9)
			}
		})
	}
}

func TestParseRangeOrderOfPatterns(t *testing.T) {
	// At-most beats the span pattern even when a dash-like sequence follows.
	r, ok := ParseRange("≤100 (was 80-90 last week)")
	assert.True(t, ok)
	assert.InDelta(t, 0, r.Low, 1e-9)
	assert.InDelta(t, 100, r.High, 1e-9)
}

func TestBracketRangeMidpoint(t *testing.T) {
	assert.InDelta(t, 109.5, BracketRange{Low: 100, High: 119}.Midpoint(), 1e-9)
	assert.InDelta(t, 300, BracketRange{Low: 200, High: 400}.Midpoint(), 1e-9)
}
