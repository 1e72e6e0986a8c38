// Package fade maps a clock reading onto a linear gain ramp.
package fade

// Fade returns the position of x within [start, end] as a gain in [0, 1].
// An end before start describes a fade out: the gain is 1 at start and
// falls to 0 at end. When start == end the ramp degenerates to a step:
// 1 once x has reached start, 0 before it.
func Fade(x, start, end float64) float64 {
	if start == end {
		if x >= start {
			return 1
		}
		return 0
	}
	return clamp01((x - start) / (end - start))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
