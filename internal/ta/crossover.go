package ta

// Flags holds the per-bar aggregate buy and sell signals of an evaluation.
type Flags struct {
	Buy, Sell []bool
}

// CrossUp marks bars where price has stayed strictly above ref for at least
// lag consecutive bars, counting from a bar where it crossed up from at or
// below. A run already in progress at index 0 is not a crossing.
func CrossUp(price, ref []float64, lag int) []bool {
	above := make([]bool, len(price))
	for i := range price {
		above[i] = i < len(ref) && price[i] > ref[i]
	}
	return confirmed(above, lag)
}

// CrossDown is the mirror of CrossUp.
func CrossDown(price, ref []float64, lag int) []bool {
	below := make([]bool, len(price))
	for i := range price {
		below[i] = i < len(ref) && price[i] < ref[i]
	}
	return confirmed(below, lag)
}

func confirmed(cond []bool, lag int) []bool {
	out := make([]bool, len(cond))
	if lag < 1 {
		lag = 1
	}
	run, crossed := 0, false
	for i, c := range cond {
		if !c {
			run = 0
			continue
		}
		if run == 0 {
			crossed = i > 0
		}
		run++
		out[i] = crossed && run >= lag
	}
	return out
}

// Signals ANDs the crossover series of every reference column, then clears
// any bar where both buy and sell are set. Only that bar is affected.
func Signals(price []float64, refs [][]float64, lag int) Flags {
	n := len(price)
	f := Flags{Buy: make([]bool, n), Sell: make([]bool, n)}
	if len(refs) == 0 {
		return f
	}
	for i := range f.Buy {
		f.Buy[i], f.Sell[i] = true, true
	}
	for _, ref := range refs {
		up := CrossUp(price, ref, lag)
		down := CrossDown(price, ref, lag)
		for i := 0; i < n; i++ {
			f.Buy[i] = f.Buy[i] && up[i]
			f.Sell[i] = f.Sell[i] && down[i]
		}
	}
	for i := 0; i < n; i++ {
		if f.Buy[i] && f.Sell[i] {
			f.Buy[i], f.Sell[i] = false, false
		}
	}
	return f
}
