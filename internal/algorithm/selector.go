package algorithm

// rank orders candidate combinations: lower score first, then fewer bottles.
type rank struct {
	score   int
	bottles int
}

func (r rank) less(o rank) bool {
	if r.score != o.score {
		return r.score < o.score
	}
	return r.bottles < o.bottles
}

// scoreOf is the deviation from the required weight plus the per-bottle penalty.
func scoreOf(bottleWeight, required, bottles, penalty int) rank {
	diff := bottleWeight - required
	if diff < 0 {
		diff = -diff
	}
	return rank{score: diff + penalty*bottles, bottles: bottles}
}

type candidate struct {
	weight int
	rank   rank
	combo  map[int]int
}

// selector tracks the best undershoot and overshoot candidates seen so far.
type selector struct {
	required int
	under    *candidate
	over     *candidate
}

func newSelector(required int) *selector {
	return &selector{required: required}
}

// observe offers one combination. A weight equal to the required weight counts
// as both under and over. The empty combination is always an undershoot
// fallback, which matters when the bag alone exceeds the target.
func (s *selector) observe(weight int, r rank, combo map[int]int) {
	if weight <= s.required || weight == 0 {
		if s.under == nil || r.less(s.under.rank) {
			s.under = &candidate{weight: weight, rank: r, combo: combo}
		}
	}
	if weight >= s.required {
		if s.over == nil || r.less(s.over.rank) {
			s.over = &candidate{weight: weight, rank: r, combo: combo}
		}
	}
}

// choose applies the overshoot policy: an overshoot wins only when its score is
// below ratio times the best undershoot score.
func (s *selector) choose(p Params) *candidate {
	if p.AllowOvershoot && s.over != nil &&
		float64(s.over.rank.score) < p.OvershootRatio*float64(s.under.rank.score) {
		return s.over
	}
	return s.under
}
