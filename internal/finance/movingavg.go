package finance

// MovingAverage is a centered moving average whose window shrinks at the
// edges instead of padding. For index i it averages values[i-window/2 ..
// i+window/2] inclusive, clamped to the slice bounds.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if window < 1 {
		window = 1
	}
	half := window / 2
	for i := range values {
		start := max(0, i-half)
		stop := min(len(values)-1, i+half)
		sum := 0.0
		for _, v := range values[start : stop+1] {
			sum += v
		}
		out[i] = sum / float64(stop-start+1)
	}
	return out
}
