package algorithm

import (
	"errors"
	"testing"
)

func TestSolve_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		bottles   map[int]int
		target    int
		bag       int
		params    Params
		wantCombo map[int]int
		wantTotal int
		wantOver  bool
	}{
		{
			name:      "Exact mix of two sizes",
			bottles:   map[int]int{500: 4, 1000: 2},
			target:    3000,
			params:    DefaultParams(),
			wantCombo: map[int]int{1000: 2, 500: 2},
			wantTotal: 3000,
		},
		{
			name:      "Overshoot not worth it",
			bottles:   map[int]int{300: 10},
			target:    1000,
			params:    DefaultParams(),
			wantCombo: map[int]int{300: 3},
			wantTotal: 900,
		},
		{
			name:      "No bottles at all",
			bottles:   map[int]int{},
			target:    500,
			bag:       500,
			params:    DefaultParams(),
			wantCombo: map[int]int{},
			wantTotal: 500,
		},
		{
			name:      "Overshoot clearly better",
			bottles:   map[int]int{1000: 3},
			target:    2900,
			params:    DefaultParams(),
			wantCombo: map[int]int{1000: 3},
			wantTotal: 3000,
			wantOver:  true,
		},
		{
			name:      "Overshoot disallowed",
			bottles:   map[int]int{1000: 3},
			target:    2900,
			params:    Params{AllowOvershoot: false, OvershootRatio: 0.5, BottlePenalty: 50},
			wantCombo: map[int]int{1000: 2},
			wantTotal: 2000,
		},
		{
			name:      "Zero ratio never overshoots",
			bottles:   map[int]int{1000: 3},
			target:    2900,
			params:    Params{AllowOvershoot: true, OvershootRatio: 0, BottlePenalty: 50},
			wantCombo: map[int]int{1000: 2},
			wantTotal: 2000,
		},
		{
			name:      "Bag heavier than target",
			bottles:   map[int]int{500: 2},
			target:    500,
			bag:       770,
			params:    DefaultParams(),
			wantCombo: map[int]int{},
			wantTotal: 770,
		},
		{
			name:      "Bag equals target",
			bottles:   map[int]int{500: 2, 250: 1},
			target:    770,
			bag:       770,
			params:    DefaultParams(),
			wantCombo: map[int]int{},
			wantTotal: 770,
		},
		{
			name:      "Zero penalty prefers fewer bottles on ties",
			bottles:   map[int]int{100: 10, 250: 4},
			target:    1000,
			params:    Params{AllowOvershoot: true, OvershootRatio: 0.5, BottlePenalty: 0},
			wantCombo: map[int]int{250: 4},
			wantTotal: 1000,
		},
		{
			name:      "Class with zero count is ignored",
			bottles:   map[int]int{500: 0, 330: 2},
			target:    1430,
			bag:       770,
			params:    DefaultParams(),
			wantCombo: map[int]int{330: 2},
			wantTotal: 1430,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Solve(tt.bottles, tt.target, tt.bag, tt.params)
			if err != nil {
				t.Fatalf("Solve returned error: %v", err)
			}

			if result.TotalWeight != tt.wantTotal {
				t.Errorf("TotalWeight = %d, want %d", result.TotalWeight, tt.wantTotal)
			}

			if result.Overshoot != tt.wantOver {
				t.Errorf("Overshoot = %v, want %v", result.Overshoot, tt.wantOver)
			}

			if len(result.Combo) != len(tt.wantCombo) {
				t.Errorf("Combo = %v, want %v", result.Combo, tt.wantCombo)
			}

			for w, n := range tt.wantCombo {
				if result.Combo[w] != n {
					t.Errorf("Combo[%d] = %d, want %d", w, result.Combo[w], n)
				}
			}
		})
	}
}

func TestSolve_ResultFields(t *testing.T) {
	result, err := Solve(map[int]int{300: 10}, 1000, 0, DefaultParams())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if result.RequiredWeight != 1000 {
		t.Errorf("RequiredWeight = %d, want 1000", result.RequiredWeight)
	}
	if result.BottleWeight != 900 {
		t.Errorf("BottleWeight = %d, want 900", result.BottleWeight)
	}
	if result.BottlesUsed != 3 {
		t.Errorf("BottlesUsed = %d, want 3", result.BottlesUsed)
	}
	// 100 g short plus 3 * 50 g penalty
	if result.Score != 250 {
		t.Errorf("Score = %d, want 250", result.Score)
	}
}

func TestSolve_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		bottles map[int]int
		target  int
		bag     int
		params  Params
	}{
		{"Negative target", map[int]int{500: 1}, -1, 0, DefaultParams()},
		{"Negative bag", map[int]int{500: 1}, 1000, -770, DefaultParams()},
		{"Zero bottle weight", map[int]int{0: 1}, 1000, 0, DefaultParams()},
		{"Negative bottle weight", map[int]int{-500: 1}, 1000, 0, DefaultParams()},
		{"Negative count", map[int]int{500: -2}, 1000, 0, DefaultParams()},
		{"Negative ratio", map[int]int{500: 1}, 1000, 0, Params{AllowOvershoot: true, OvershootRatio: -0.1, BottlePenalty: 50}},
		{"Negative penalty", map[int]int{500: 1}, 1000, 0, Params{AllowOvershoot: true, OvershootRatio: 0.5, BottlePenalty: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Solve(tt.bottles, tt.target, tt.bag, tt.params); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Solve error = %v, want ErrInvalidInput", err)
			}
			if _, err := SolveBruteForce(tt.bottles, tt.target, tt.bag, tt.params); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("SolveBruteForce error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSolve_DoesNotMutateInput(t *testing.T) {
	bottles := map[int]int{500: 4, 1000: 2}

	if _, err := Solve(bottles, 3000, 0, DefaultParams()); err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if len(bottles) != 2 || bottles[500] != 4 || bottles[1000] != 2 {
		t.Errorf("input was modified: %v", bottles)
	}
}

func TestBuildTable_SnapshotPerClass(t *testing.T) {
	// A single 100 g bottle must not be reused within its own step.
	table := buildTable(map[int]int{100: 1}, 1000, 50)

	if len(table) != 2 {
		t.Fatalf("table has %d weights, want 2", len(table))
	}
	if _, ok := table[200]; ok {
		t.Error("200 g reachable with only one 100 g bottle")
	}
	if table[100].combo[100] != 1 {
		t.Errorf("combo at 100 g = %v, want one bottle", table[100].combo)
	}
}

func TestBuildTable_KeepsFewestBottlesPerWeight(t *testing.T) {
	table := buildTable(map[int]int{250: 4, 500: 2, 1000: 1}, 1000, 50)

	e, ok := table[1000]
	if !ok {
		t.Fatal("1000 g not reachable")
	}
	if e.rank.bottles != 1 {
		t.Errorf("bottles at 1000 g = %d, want 1 (combo %v)", e.rank.bottles, e.combo)
	}

	// every reachable weight is a sum within the bounds
	for w, e := range table {
		sum := 0
		for bw, n := range e.combo {
			sum += bw * n
		}
		if sum != w {
			t.Errorf("combo %v sums to %d, stored under %d", e.combo, sum, w)
		}
	}
}

func TestSortedWeights(t *testing.T) {
	got := SortedWeights(map[int]int{330: 1, 2000: 2, 750: 1})
	want := []int{2000, 750, 330}

	if len(got) != len(want) {
		t.Fatalf("SortedWeights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedWeights[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func BenchmarkSolve_DefaultInventory(b *testing.B) {
	bottles := map[int]int{220: 2, 330: 4, 500: 3, 750: 3, 1000: 4, 2000: 3}
	for i := 0; i < b.N; i++ {
		if _, err := Solve(bottles, 10000, 770, DefaultParams()); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkSolve_ManyClasses(b *testing.B) {
	bottles := map[int]int{}
	for w := 200; w <= 2000; w += 150 {
		bottles[w] = 6
	}
	for i := 0; i < b.N; i++ {
		if _, err := Solve(bottles, 25000, 770, DefaultParams()); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
