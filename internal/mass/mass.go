// Package mass parses human-entered weights such as "10kg", "770 g" or "22lb".
package mass

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// GramsPerPound is the conversion used for "lb" inputs.
	GramsPerPound = 453.6
	// DefaultBagWeight is the bag weight in grams assumed when none is configured.
	DefaultBagWeight = 770
)

// ErrMalformedMass is returned for strings that carry no known unit and are not numbers.
var ErrMalformedMass = errors.New("malformed mass")

// Unit is the unit a bare number is interpreted in.
type Unit int

const (
	Grams Unit = iota
	Kilograms
)

// Parse converts s to grams. A trailing "kg", "g" or "lb" (any case, surrounding
// whitespace ignored) selects the unit; a bare number is read in plain.
func Parse(s string, plain Unit) (float64, error) {
	raw := strings.ToLower(strings.TrimSpace(s))

	var (
		number string
		scale  float64
	)
	switch {
	case strings.HasSuffix(raw, "kg"):
		number, scale = strings.TrimSuffix(raw, "kg"), 1000
	case strings.HasSuffix(raw, "g"):
		number, scale = strings.TrimSuffix(raw, "g"), 1
	case strings.HasSuffix(raw, "lb"):
		number, scale = strings.TrimSuffix(raw, "lb"), GramsPerPound
	case plain == Kilograms:
		number, scale = raw, 1000
	default:
		number, scale = raw, 1
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedMass, s)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("%w: %q must be a finite non-negative number", ErrMalformedMass, s)
	}

	return value * scale, nil
}

// ParseKilograms parses a target weight. Bare numbers are kilograms; the
// result is in kilograms.
func ParseKilograms(s string) (float64, error) {
	g, err := Parse(s, Kilograms)
	if err != nil {
		return 0, err
	}
	return g / 1000, nil
}

// ParseGrams parses a bag weight to whole grams. Bare numbers are grams and an
// empty string yields def.
func ParseGrams(s string, def int) (int, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	g, err := Parse(s, Grams)
	if err != nil {
		return 0, err
	}
	return Round(g), nil
}

// Round rounds grams half to even.
func Round(grams float64) int {
	return int(math.RoundToEven(grams))
}

// KilogramsToGrams converts kilograms to whole grams.
func KilogramsToGrams(kg float64) int {
	return Round(kg * 1000)
}
