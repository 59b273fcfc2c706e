// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package recommend

import "math"

// mmr greedily picks k candidates balancing relevance and diversity.
// lambda = 1 is pure relevance. Candidates must be sorted by score.
func mmr(cands []Scored, k int, lambda float64, sim func(a, b int) float64) []Scored {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	if k > len(cands) {
		k = len(cands)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(cands))
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range cands {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range selected {
				if s := sim(i, j); s > maxSim {
					maxSim = s
				}
			}
			v := lambda*cands[i].Score - (1-lambda)*maxSim
			if v > bestScore {
				best, bestScore = i, v
			}
		}
		used[best] = true
		selected = append(selected, best)
	}

	out := make([]Scored, len(selected))
	for n, i := range selected {
		out[n] = cands[i]
	}
	return out
}
