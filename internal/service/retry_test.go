package service

import (
	"testing"
	"time"
)

func TestDecideRetry(t *testing.T) {
	tests := []struct {
		name      string
		attempt   int
		wantRetry bool
		wantDelay time.Duration
	}{
		{"first attempt", 1, true, 2 * time.Second},
		{"second attempt", 2, true, 4 * time.Second},
		{"third attempt", 3, true, 8 * time.Second},
		{"fourth attempt exhausted", 4, false, 0},
		{"way past the limit", 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideRetry(tt.attempt)
			if got.Retry != tt.wantRetry {
				t.Errorf("DecideRetry(%d).Retry = %v, want %v", tt.attempt, got.Retry, tt.wantRetry)
			}
			if got.Delay != tt.wantDelay {
				t.Errorf("DecideRetry(%d).Delay = %v, want %v", tt.attempt, got.Delay, tt.wantDelay)
			}
		})
	}
}
