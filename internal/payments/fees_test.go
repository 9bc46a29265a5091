package payments

import (
	"testing"

	"github.com/truckbite/truckbite-backend/pkg/config"
)

func newSchedule(t *testing.T, platform, tip string) *FeeSchedule {
	t.Helper()
	fees, err := NewFeeSchedule(config.FeesConfig{PlatformPercent: platform, TipPercent: tip})
	if err != nil {
		t.Fatalf("new fee schedule: %v", err)
	}
	return fees
}

func TestPlatformFeeCents(t *testing.T) {
	fees := newSchedule(t, "6.5", "2.0")

	tests := []struct {
		name      string
		baseCents int
		tipCents  int
		inTrial   bool
		want      int
	}{
		// 6.5% of 2000 = 130
		{"no tip", 2000, 0, false, 130},
		// 6.5% of 2200 = 143, plus 2% of 200 = 4 -> 147
		{"with tip", 2000, 200, false, 147},
		// 6.5% of 999 = 64.935 -> 65 (rounded half-up)
		{"rounds to cents", 999, 0, false, 65},
		// 6.5% of 100 = 6.5 -> 7
		{"half rounds up", 100, 0, false, 7},
		{"trial waives fee", 2000, 200, true, 0},
		{"zero amount", 0, 0, false, 0},
	}
	for _, tt := range tests {
		if got := fees.PlatformFeeCents(tt.baseCents, tt.tipCents, tt.inTrial); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestNewFeeScheduleRejectsBadInput(t *testing.T) {
	if _, err := NewFeeSchedule(config.FeesConfig{PlatformPercent: "abc", TipPercent: "2"}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewFeeSchedule(config.FeesConfig{PlatformPercent: "-1", TipPercent: "2"}); err == nil {
		t.Fatal("expected negative rate rejection")
	}
}
