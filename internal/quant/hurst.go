package quant

// Rescaled-range analysis over daily close prices. A Hurst exponent above
// 0.5 indicates a persistent (trending) series, below 0.5 an anti-persistent
// (mean-reverting) one.

import "math"

const neutralHurst = 0.5

// HurstRS estimates the Hurst exponent of a price series using R/S analysis
// on log returns. It returns 0.5 (the random-walk value) when the series is
// too short or the regression is degenerate.
func HurstRS(prices []float64, minChunk int) float64 {
	if minChunk < 2 {
		minChunk = 2
	}
	if len(prices) < minChunk*2 {
		return neutralHurst
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			return neutralHurst
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	n := len(returns)
	var logN, logRS []float64
	for _, chunk := range chunkSizes(minChunk, n) {
		rs, ok := meanRescaledRange(returns, chunk)
		if !ok {
			continue
		}
		logN = append(logN, math.Log(float64(chunk)))
		logRS = append(logRS, math.Log(rs))
	}
	if len(logN) < 3 {
		return neutralHurst
	}

	h, ok := slope(logN, logRS)
	if !ok {
		return neutralHurst
	}
	return h
}

// TrendingRate returns the relative change over the series: (last − first)
// divided by the last value. Zero for degenerate input.
func TrendingRate(x []float64) float64 {
	if len(x) < 2 || x[len(x)-1] == 0 {
		return 0
	}
	return (x[len(x)-1] - x[0]) / x[len(x)-1]
}

// chunkSizes yields up to 20 log-spaced window lengths in [min, n].
func chunkSizes(min, n int) []int {
	if min > n {
		return nil
	}
	lo, hi := math.Log10(float64(min)), math.Log10(float64(n))
	var out []int
	last := 0
	for i := 0; i < 20; i++ {
		v := int(math.Pow(10, lo+(hi-lo)*float64(i)/19))
		if v < min || v > n || v == last {
			continue
		}
		out = append(out, v)
		last = v
	}
	return out
}

// meanRescaledRange averages R/S over non-overlapping chunks of the given
// size. Chunks with zero dispersion are skipped.
func meanRescaledRange(x []float64, chunk int) (float64, bool) {
	numChunks := len(x) / chunk
	if numChunks < 1 {
		return 0, false
	}
	var sum float64
	var count int
	for c := 0; c < numChunks; c++ {
		part := x[c*chunk : (c+1)*chunk]

		var mean float64
		for _, v := range part {
			mean += v
		}
		mean /= float64(len(part))

		var cum, lo, hi, ss float64
		for _, v := range part {
			cum += v - mean
			if cum < lo {
				lo = cum
			}
			if cum > hi {
				hi = cum
			}
			ss += (v - mean) * (v - mean)
		}
		if len(part) < 2 {
			continue
		}
		std := math.Sqrt(ss / float64(len(part)-1))
		if std == 0 {
			continue
		}
		sum += (hi - lo) / std
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// slope fits y = H·x + c by least squares and returns H.
func slope(x, y []float64) (float64, bool) {
	n := float64(len(x))
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, false
	}
	return (n*sxy - sx*sy) / denom, true
}
