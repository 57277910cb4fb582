package algorithm

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Params tunes the trade-off between accuracy, bottle count and overshooting.
type Params struct {
	AllowOvershoot bool    // permit totals above the required weight
	OvershootRatio float64 // overshoot must score below ratio * best undershoot score
	BottlePenalty  int     // grams of deviation one extra bottle is worth
}

// DefaultParams returns the stock tuning: overshoot allowed, ratio 0.5, 50 g per bottle.
func DefaultParams() Params {
	return Params{
		AllowOvershoot: true,
		OvershootRatio: 0.5,
		BottlePenalty:  50,
	}
}

// Result represents the chosen combination
type Result struct {
	Combo          map[int]int // bottle weight (g) -> count, zero counts omitted
	TotalWeight    int         // bag + bottles (g)
	BottleWeight   int         // bottles only (g)
	BottlesUsed    int
	RequiredWeight int // target - bag (g)
	Score          int
	Overshoot      bool // bottle weight is above the required weight
}

// entry is the best combination found for one exact bottle weight.
type entry struct {
	rank  rank
	combo map[int]int
}

// Solve picks the bottle combination whose weight best matches
// targetWeight - bagWeight.
//
// bottles maps a bottle weight in grams to the number of bottles available.
// Every reachable bottle weight keeps only its best-ranked combination, so the
// work is bounded by (distinct reachable weights) * (sum of counts) rather
// than by the full product of count choices.
func Solve(bottles map[int]int, targetWeight, bagWeight int, p Params) (Result, error) {
	if err := validate(bottles, targetWeight, bagWeight, p); err != nil {
		return Result{}, err
	}

	required := targetWeight - bagWeight
	table := buildTable(bottles, required, p.BottlePenalty)

	sel := newSelector(required)
	weights := slices.Sorted(maps.Keys(table))
	for _, w := range weights {
		e := table[w]
		sel.observe(w, e.rank, e.combo)
	}

	chosen := sel.choose(p)
	return newResult(chosen, required, bagWeight), nil
}

// buildTable folds in one weight class at a time. Each step reads only from the
// table as it stood before the class, so a class contributes 0..max bottles
// exactly once.
func buildTable(bottles map[int]int, required, penalty int) map[int]entry {
	table := map[int]entry{
		0: {rank: scoreOf(0, required, 0, penalty), combo: map[int]int{}},
	}

	weights := slices.Sorted(maps.Keys(bottles))
	slices.Reverse(weights)

	for _, w := range weights {
		maxCount := bottles[w]
		if maxCount == 0 {
			continue
		}

		next := make(map[int]entry, len(table)*(maxCount+1))
		maps.Copy(next, table)

		current := slices.Sorted(maps.Keys(table))
		for _, cur := range current {
			prev := table[cur]
			for cnt := 1; cnt <= maxCount; cnt++ {
				newWeight := cur + w*cnt
				r := scoreOf(newWeight, required, prev.rank.bottles+cnt, penalty)

				if existing, ok := next[newWeight]; ok && !r.less(existing.rank) {
					continue
				}

				combo := maps.Clone(prev.combo)
				combo[w] += cnt
				next[newWeight] = entry{rank: r, combo: combo}
			}
		}
		table = next
	}

	return table
}

func newResult(c *candidate, required, bagWeight int) Result {
	combo := make(map[int]int, len(c.combo))
	for w, n := range c.combo {
		if n > 0 {
			combo[w] = n
		}
	}

	return Result{
		Combo:          combo,
		TotalWeight:    c.weight + bagWeight,
		BottleWeight:   c.weight,
		BottlesUsed:    c.rank.bottles,
		RequiredWeight: required,
		Score:          c.rank.score,
		Overshoot:      c.weight > required,
	}
}

func validate(bottles map[int]int, targetWeight, bagWeight int, p Params) error {
	if targetWeight < 0 {
		return fmt.Errorf("%w: target weight must be non-negative, got %d", ErrInvalidInput, targetWeight)
	}
	if bagWeight < 0 {
		return fmt.Errorf("%w: bag weight must be non-negative, got %d", ErrInvalidInput, bagWeight)
	}
	if p.OvershootRatio < 0 || math.IsNaN(p.OvershootRatio) {
		return fmt.Errorf("%w: overshoot ratio must be non-negative, got %g", ErrInvalidInput, p.OvershootRatio)
	}
	if p.BottlePenalty < 0 {
		return fmt.Errorf("%w: bottle penalty must be non-negative, got %d", ErrInvalidInput, p.BottlePenalty)
	}
	for w, n := range bottles {
		if w <= 0 {
			return fmt.Errorf("%w: bottle weight must be positive, got %d", ErrInvalidInput, w)
		}
		if n < 0 {
			return fmt.Errorf("%w: count for %d g must be non-negative, got %d", ErrInvalidInput, w, n)
		}
	}
	return nil
}

// SortedWeights returns the weights of a combination, heaviest first.
func SortedWeights(combo map[int]int) []int {
	weights := slices.Sorted(maps.Keys(combo))
	slices.Reverse(weights)
	return weights
}
