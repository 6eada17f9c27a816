package feedpulse

import (
	"testing"
	"time"
)

func TestHealthFor(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		diag Diagnostics
		want Health
	}{
		{
			name: "clean feed is good",
			diag: Diagnostics{},
			want: HealthGood,
		},
		{
			name: "stalled feed is degraded",
			diag: Diagnostics{Stalled: true, LastEventAt: &now},
			want: HealthDegraded,
		},
		{
			name: "consecutive errors are critical",
			diag: Diagnostics{ConsecutiveErrors: 1, LastErrorAt: &now},
			want: HealthCritical,
		},
		{
			name: "errors win over stall",
			diag: Diagnostics{ConsecutiveErrors: 3, Stalled: true},
			want: HealthCritical,
		},
		{
			name: "past errors already recovered are good",
			diag: Diagnostics{ConsecutiveErrors: 0, LastErrorAt: &now},
			want: HealthGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HealthFor(tt.diag); got != tt.want {
				t.Errorf("HealthFor(%+v) = %v, want %v", tt.diag, got, tt.want)
			}
		})
	}
}
