package fade

import (
	"math"
	"testing"
)

func TestFadeEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
	}{
		{"fade in", 100, 400},
		{"fade out", 400, 100},
		{"negative range", -50, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fade(tt.start, tt.start, tt.end); got != 0 {
				t.Fatalf("Fade(start) = %v, want 0", got)
			}
			if got := Fade(tt.end, tt.start, tt.end); got != 1 {
				t.Fatalf("Fade(end) = %v, want 1", got)
			}
		})
	}
}

func TestFadeAlwaysInUnitRange(t *testing.T) {
	ranges := [][2]float64{{0, 10}, {10, 0}, {5, 5}, {-3, 7}}
	for _, r := range ranges {
		for x := -20.0; x <= 20; x += 0.5 {
			g := Fade(x, r[0], r[1])
			if math.IsNaN(g) || g < 0 || g > 1 {
				t.Fatalf("Fade(%v, %v, %v) = %v out of range", x, r[0], r[1], g)
			}
		}
	}
}

func TestFadeStep(t *testing.T) {
	if got := Fade(9.99, 10, 10); got != 0 {
		t.Fatalf("before step: got %v, want 0", got)
	}
	if got := Fade(10, 10, 10); got != 1 {
		t.Fatalf("at step: got %v, want 1", got)
	}
	if got := Fade(11, 10, 10); got != 1 {
		t.Fatalf("after step: got %v, want 1", got)
	}
}

func TestFadeMidpoint(t *testing.T) {
	if got := Fade(250, 200, 300); got != 0.5 {
		t.Fatalf("fade in midpoint: got %v", got)
	}
	if got := Fade(250, 300, 200); got != 0.5 {
		t.Fatalf("fade out midpoint: got %v", got)
	}
	// Fade out is a fade in run backwards: earlier readings are louder.
	if Fade(210, 300, 200) <= Fade(290, 300, 200) {
		t.Fatal("expected fade out to decrease as x approaches end")
	}
}
