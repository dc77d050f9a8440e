package worker

import "testing"

func TestShouldThrottle(t *testing.T) {
	tests := []struct {
		name   string
		counts map[int]int
		want   bool
	}{
		{"empty window", map[int]int{}, false},
		{"all success", map[int]int{200: 40}, false},
		{"a single 429", map[int]int{200: 10, 429: 1}, true},
		{"a single 408", map[int]int{408: 1}, true},
		{"a 5xx", map[int]int{200: 5, 503: 2}, true},
		{"a 4xx that is not 408/429 does not throttle", map[int]int{404: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldThrottle(tt.counts); got != tt.want {
				t.Errorf("shouldThrottle(%v) = %v, want %v", tt.counts, got, tt.want)
			}
		})
	}
}
