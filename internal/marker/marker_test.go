package marker

import (
	"math"
	"testing"
)

func TestAlreadyReverted(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"no markers", "please undo the last change", 0},
		{"single", "done. [VIBEDOCTOR CHANGES: 2]", 2},
		{"summed", "[VIBEDOCTOR CHANGES: 1] then later [VIBEDOCTOR CHANGES: 3]\n[VIBEDOCTOR CHANGES: 4]", 8},
		{"echoed twice in one reply", "✅ reverted [VIBEDOCTOR CHANGES: 1]\n\ninclude this tag: [VIBEDOCTOR CHANGES: 1]", 2},
		{"spacing tolerated", "[VIBEDOCTOR CHANGES:5 ]", 5},
		{"malformed ignored", "[VIBEDOCTOR CHANGES: two] [VIBEDOCTOR CHANGES: -1] [VIBEDOCTOR CHANGES]", 0},
		{"overflow ignored", "[VIBEDOCTOR CHANGES: 99999999999999999999999] [VIBEDOCTOR CHANGES: 1]", 1},
		{"sum saturates", "[VIBEDOCTOR CHANGES: 9223372036854775807] [VIBEDOCTOR CHANGES: 2]", math.MaxInt},
		{"other tags ignored", "[OTHER CHANGES: 3] [VIBEDOCTOR CHANGES: 1]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlreadyReverted(tt.text); got != tt.want {
				t.Errorf("AlreadyReverted() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 10} {
		if got := AlreadyReverted(Format(n)); got != n {
			t.Errorf("AlreadyReverted(Format(%d)) = %d", n, got)
		}
	}
	if Format(3) != "[VIBEDOCTOR CHANGES: 3]" {
		t.Errorf("Format(3) = %q", Format(3))
	}
}

func TestCount(t *testing.T) {
	if got := Count("[VIBEDOCTOR CHANGES: 1] x [VIBEDOCTOR CHANGES: 9]"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}
