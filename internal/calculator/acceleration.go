package calculator

// Acceleration is the change in daily percent change, smoothed by a trailing
// mean of the given width.
func Acceleration(closes []float64, smoothing int) []float64 {
	return RollingMean(Diff(PctChange(closes)), smoothing)
}
