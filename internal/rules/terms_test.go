package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermForDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"before any term", "1990-01-01", 0},
		{"term 4 start", "1994-07-19", 4},
		{"term 4 interior", "1997-03-01", 4},
		{"term boundary is half-open", "1999-07-20", 5},
		{"term 9 interior", "2021-01-01", 9},
		{"after last known term", "2024-07-16", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, TermForDate(date), "TermForDate(%s)", tt.date)
		})
	}
}
