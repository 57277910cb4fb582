package algorithm

import (
	"fmt"
	"maps"
	"slices"
)

// MaxBruteForceSpace caps the number of combinations SolveBruteForce will enumerate.
const MaxBruteForceSpace = 1 << 20

// SearchSpace returns the number of distinct count choices, the product of
// (count+1) over all weight classes. It saturates at MaxBruteForceSpace+1.
func SearchSpace(bottles map[int]int) int {
	space := 1
	for _, n := range bottles {
		if n < 0 {
			continue
		}
		space *= n + 1
		if space > MaxBruteForceSpace {
			return MaxBruteForceSpace + 1
		}
	}
	return space
}

// SolveBruteForce scores every combination of counts and applies the same
// selection policy as Solve. It exists to cross-check Solve on small inputs.
func SolveBruteForce(bottles map[int]int, targetWeight, bagWeight int, p Params) (Result, error) {
	if err := validate(bottles, targetWeight, bagWeight, p); err != nil {
		return Result{}, err
	}
	if space := SearchSpace(bottles); space > MaxBruteForceSpace {
		return Result{}, fmt.Errorf("%w: more than %d combinations", ErrSearchSpaceTooLarge, MaxBruteForceSpace)
	}

	required := targetWeight - bagWeight
	weights := slices.Sorted(maps.Keys(bottles))
	counts := make([]int, len(weights))
	sel := newSelector(required)

	for {
		total, used := 0, 0
		combo := make(map[int]int, len(weights))
		for i, w := range weights {
			if counts[i] > 0 {
				combo[w] = counts[i]
				total += w * counts[i]
				used += counts[i]
			}
		}
		sel.observe(total, scoreOf(total, required, used, p.BottlePenalty), combo)

		// advance the mixed-radix counter
		i := 0
		for ; i < len(weights); i++ {
			if counts[i] < bottles[weights[i]] {
				counts[i]++
				break
			}
			counts[i] = 0
		}
		if i == len(weights) {
			break
		}
	}

	return newResult(sel.choose(p), required, bagWeight), nil
}
