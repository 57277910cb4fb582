// Package report renders a solve result as the plain-text summary printed by
// the solve command.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
)

// deviationThreshold is the smallest gap, in grams, worth printing next to the total.
const deviationThreshold = 10

// Write prints the summary for result. targetWeight and bagWeight are in grams.
func Write(w io.Writer, targetWeight, bagWeight int, result algorithm.Result) error {
	var b strings.Builder

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Target   Weight:  %6.3f kg\n", kg(targetWeight))
	fmt.Fprintf(&b, "Bag      Weight:  %6.3f kg\n", kg(bagWeight))
	fmt.Fprintf(&b, "Bottles  Weight:  %6.3f kg\n", kg(result.BottleWeight))

	if diff := Deviation(targetWeight, result.TotalWeight); diff != "" {
		fmt.Fprintf(&b, "Total    Weight:  %6.3f kg (%s)\n", kg(result.TotalWeight), diff)
	} else {
		fmt.Fprintf(&b, "Total    Weight:  %6.3f kg\n", kg(result.TotalWeight))
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Total Bottles Used:  %d\n", result.BottlesUsed)
	fmt.Fprintln(&b, "Bottle  Combo: ")
	for _, weight := range algorithm.SortedWeights(result.Combo) {
		count := result.Combo[weight]
		fmt.Fprintf(&b, " *  %2d  bottle%s of  %s =  %6.3f kg\n",
			count, plural(count), bottleLabel(weight), kg(weight*count))
	}
	fmt.Fprintln(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// Deviation formats how far total is from target, or "" when it is within
// a few grams.
func Deviation(targetWeight, totalWeight int) string {
	diff := totalWeight - targetWeight
	switch {
	case abs(diff) < deviationThreshold:
		return ""
	case abs(diff) >= 1000:
		return fmt.Sprintf("%+.3f kg", kg(diff))
	default:
		return fmt.Sprintf("%+d g", diff)
	}
}

func bottleLabel(weight int) string {
	if weight < 1000 {
		return fmt.Sprintf("%4d g ", weight)
	}
	return fmt.Sprintf("%4.2f kg", kg(weight))
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return " "
}

func kg(grams int) float64 {
	return float64(grams) / 1000
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
