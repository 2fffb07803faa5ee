// Package risk classifies port weather forecasts into tiered risk levels
package risk

// beaufortBoundsKts holds the ascending lower speed boundary of each Beaufort
// step above zero: a speed below bounds[i] maps to scale i.
var beaufortBoundsKts = []float64{1, 4, 7, 11, 17, 22, 28, 34, 41, 48, 56, 64}

// KtsToBeaufort converts a sustained speed in knots to the Beaufort scale
// (0-12, clamped at the top).
func KtsToBeaufort(kts float64) int {
	for i, bound := range beaufortBoundsKts {
		if kts < bound {
			return i
		}
	}
	return 12
}
