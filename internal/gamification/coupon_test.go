package gamification

import (
	"strings"
	"testing"
)

func TestGenerateCouponCodeFormat(t *testing.T) {
	code, err := GenerateCouponCode()
	if err != nil {
		t.Fatalf("GenerateCouponCode: %v", err)
	}

	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d (%q)", len(parts), code)
	}
	for _, part := range parts {
		if len(part) != 4 {
			t.Errorf("segment %q should have 4 characters", part)
		}
		for _, ch := range part {
			if !strings.ContainsRune(couponAlphabet, ch) {
				t.Errorf("character %q not in coupon alphabet", ch)
			}
		}
	}
}

func TestGenerateCouponCodeUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCouponCode()
		if err != nil {
			t.Fatalf("GenerateCouponCode: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate coupon code %q", code)
		}
		seen[code] = true
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{1000, 11},
		{-10, 1},
	}
	for _, tt := range tests {
		if got := Level(tt.points); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}
