package signal

import (
	"math"
	"testing"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
)

func TestDeriveLevelBuckets(t *testing.T) {
	cases := []struct {
		dpi  float64
		want PressureLevel
	}{
		{0, PressureLow},
		{10, PressureLow},
		{24.99, PressureLow},
		{25, PressureModerate},
		{49, PressureModerate},
		{50, PressureHigh},
		{60, PressureHigh},
		{75, PressureCritical},
		{100, PressureCritical},
	}
	for _, tc := range cases {
		got, err := DeriveLevel(tc.dpi)
		if err != nil {
			t.Fatalf("DeriveLevel(%v): %v", tc.dpi, err)
		}
		if got != tc.want {
			t.Fatalf("DeriveLevel(%v) = %s, want %s", tc.dpi, got, tc.want)
		}
	}
}

func TestDeriveLevelRejectsOutOfRange(t *testing.T) {
	for _, dpi := range []float64{-0.1, 101, math.NaN()} {
		_, err := DeriveLevel(dpi)
		if !governance.IsCode(err, governance.CodeValidation) {
			t.Fatalf("DeriveLevel(%v) should fail validation, got %v", dpi, err)
		}
	}
}
