package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReportParams(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start, end string
		period     string
		min        string
		wantStart  string
		wantEnd    string
		wantMin    int
	}{
		{
			name:      "all defaults",
			wantStart: "2024-05-17", // 30-day window ending today
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "explicit range",
			start:     "2024-06-01",
			end:       "2024-06-10",
			wantStart: "2024-06-01",
			wantEnd:   "2024-06-10",
			wantMin:   3,
		},
		{
			name:      "period without dates",
			period:    "7",
			wantStart: "2024-06-09",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "period of one day",
			period:    "1",
			wantStart: "2024-06-15",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "explicit start overrides period",
			start:     "2024-06-12",
			period:    "7",
			wantStart: "2024-06-12",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "reversed range is swapped",
			start:     "2024-06-10",
			end:       "2024-06-01",
			wantStart: "2024-06-01",
			wantEnd:   "2024-06-10",
			wantMin:   3,
		},
		{
			name:      "malformed dates fall back to defaults",
			start:     "notadate",
			end:       "06/15/2024",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "malformed period and min_reviews fall back",
			period:    "soon",
			min:       "lots",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "negative period ignored",
			period:    "-5",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   3,
		},
		{
			name:      "min_reviews parsed",
			min:       "5",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   5,
		},
		{
			name:      "min_reviews clamped to at least one",
			min:       "0",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   1,
		},
		{
			name:      "negative min_reviews clamped",
			min:       "-3",
			wantStart: "2024-05-17",
			wantEnd:   "2024-06-15",
			wantMin:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, minReviews := parseReportParams(tt.start, tt.end, tt.period, tt.min, now)

			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
			assert.Equal(t, tt.wantMin, minReviews)
			assert.Equal(t, time.UTC, start.Location())
		})
	}
}
