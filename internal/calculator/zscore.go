package calculator

// RollingZScore measures how many population standard deviations x sits from
// its trailing mean. Undefined where the window is incomplete or flat.
func RollingZScore(x []float64, window int) []float64 {
	m := RollingMean(x, window)
	sd := RollingStd(x, window, 0)
	out := undefined(len(x))
	for i, v := range x {
		if isNaN(v) || isNaN(m[i]) || isNaN(sd[i]) || sd[i] == 0 {
			continue
		}
		out[i] = (v - m[i]) / sd[i]
	}
	return out
}
