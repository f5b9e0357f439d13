package analysis

import "math"

// SettleTime is the earliest time after which |value| stays within band
// for the rest of the record. It reports false if the last sample is
// still outside the band.
func SettleTime(times, values []float64, band float64) (float64, bool) {
	n := min(len(times), len(values))
	if n == 0 {
		return 0, false
	}
	if math.Abs(values[n-1]) > band {
		return 0, false
	}
	i := n - 1
	for i > 0 && math.Abs(values[i-1]) <= band {
		i--
	}
	return times[i], true
}

// ZeroCrossings counts sign changes, ignoring exact zeros.
func ZeroCrossings(values []float64) int {
	count := 0
	prev := 0.0
	for _, v := range values {
		if v == 0 {
			continue
		}
		if prev != 0 && (v > 0) != (prev > 0) {
			count++
		}
		prev = v
	}
	return count
}

// Peak returns the largest |value| and the time it occurred.
func Peak(times, values []float64) (t, peak float64) {
	for i := 0; i < len(times) && i < len(values); i++ {
		if a := math.Abs(values[i]); a > peak {
			t, peak = times[i], a
		}
	}
	return t, peak
}
