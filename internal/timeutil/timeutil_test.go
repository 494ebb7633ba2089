package timeutil_test

import (
	"testing"
	"time"

	"github.com/sgaunet/auto-land/internal/timeutil"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "zero duration", duration: 0, expected: "0s"},
		{name: "seconds only", duration: 45 * time.Second, expected: "45s"},
		{name: "boundary 59 seconds", duration: 59 * time.Second, expected: "59s"},
		{name: "boundary 60 seconds", duration: 60 * time.Second, expected: "1m 0s"},
		{name: "minutes and seconds", duration: 1*time.Minute + 23*time.Second, expected: "1m 23s"},
		{name: "poll interval", duration: 30 * time.Second, expected: "30s"},
		{name: "sync interval", duration: 60 * time.Second, expected: "1m 0s"},
		{name: "thirty poll rounds", duration: 15 * time.Minute, expected: "15m 0s"},
		{name: "hours render as minutes", duration: 2 * time.Hour, expected: "120m 0s"},
		{name: "rounds to nearest second", duration: 1400 * time.Millisecond, expected: "1s"},
		{name: "tie rounds away from zero", duration: 1500 * time.Millisecond, expected: "2s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := timeutil.FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, expected %q", tt.duration, result, tt.expected)
			}
		})
	}
}
