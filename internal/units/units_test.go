package units

import "testing"

func TestIsValid(t *testing.T) {
	for _, unit := range ValidUnits {
		if !IsValid(unit) {
			t.Errorf("IsValid(%q) = false, want true", unit)
		}
	}
	for _, unit := range []string{"", "m", "inch", "UM"} {
		if IsValid(unit) {
			t.Errorf("IsValid(%q) = true, want false", unit)
		}
	}
}

func TestConvertHeight(t *testing.T) {
	cases := []struct {
		name   string
		height float64
		target string
		want   float64
	}{
		{"um passthrough", 1.5, UM, 1.5},
		{"um to nm", 1.5, NM, 1500},
		{"um to mm", 1500, MM, 1.5},
		{"unknown unit defaults to um", 2.5, "furlong", 2.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConvertHeight(tc.height, tc.target); got != tc.want {
				t.Errorf("ConvertHeight(%g, %q) = %g, want %g", tc.height, tc.target, got, tc.want)
			}
		})
	}
}
