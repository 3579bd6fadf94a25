package ta

import "math"

// Series helpers use min-periods=1 semantics: early bars are computed over
// whatever history is available, so index 0 equals the source value.

func SMA(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	if n <= 0 {
		fillNaN(out)
		return out
	}
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		out[i] = sum / float64(min(i+1, n))
	}
	return out
}

// EMA uses alpha = 2/(n+1), seeded with the first value.
func EMA(vals []float64, n int) []float64 {
	return ewm(vals, n, 2.0/float64(n+1))
}

// SMMA is the Wilder smoothed average, alpha = 1/n.
func SMMA(vals []float64, n int) []float64 {
	return ewm(vals, n, 1.0/float64(n))
}

func ewm(vals []float64, n int, alpha float64) []float64 {
	out := make([]float64, len(vals))
	if n <= 0 {
		fillNaN(out)
		return out
	}
	for i, v := range vals {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

// WMA weights the most recent value n, the one before n-1, and so on.
func WMA(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	if n <= 0 {
		fillNaN(out)
		return out
	}
	for i := range vals {
		k := min(i+1, n)
		num, den := 0.0, 0.0
		for j := 0; j < k; j++ {
			w := float64(k - j)
			num += w * vals[i-j]
			den += w
		}
		out[i] = num / den
	}
	return out
}

// StdDev is the rolling population standard deviation.
func StdDev(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	if n <= 0 {
		fillNaN(out)
		return out
	}
	mean := SMA(vals, n)
	for i := range vals {
		k := min(i+1, n)
		s := 0.0
		for j := i - k + 1; j <= i; j++ {
			d := vals[j] - mean[i]
			s += d * d
		}
		out[i] = math.Sqrt(s / float64(k))
	}
	return out
}

// Bollinger returns the middle, upper and lower bands.
func Bollinger(closes []float64, n int, k float64) (mid, up, low []float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = make([]float64, len(closes))
	low = make([]float64, len(closes))
	for i := range closes {
		up[i] = mid[i] + k*sd[i]
		low[i] = mid[i] - k*sd[i]
	}
	return
}

func fillNaN(out []float64) {
	for i := range out {
		out[i] = math.NaN()
	}
}
