package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/config"
	"github.com/sander-remitly/knapsnack/internal/mass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg = config.Default()
}

func TestSolve_Prompted(t *testing.T) {
	var out bytes.Buffer
	bottles := map[int]int{500: 4, 1000: 2}

	err := solve(strings.NewReader("3\n0\n"), &out, bottles, solveInput{}, algorithm.DefaultParams(), true)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Target  Weight [kg] (e.g. 10kg / 22lb ): ")
	assert.Contains(t, got, "Bag     Weight [g]  (e.g. 770g / 1.7lb): ")
	assert.Contains(t, got, "Total    Weight:   3.000 kg\n")
	assert.Contains(t, got, "Total Bottles Used:  4\n")
	assert.Contains(t, got, " *   2  bottles of  1.00 kg =   2.000 kg\n")
	assert.Contains(t, got, " *   2  bottles of   500 g  =   1.000 kg\n")
}

func TestSolve_EmptyBagUsesDefault(t *testing.T) {
	var out bytes.Buffer

	err := solve(strings.NewReader("2.77\n\n"), &out, map[int]int{1000: 3}, solveInput{}, algorithm.DefaultParams(), false)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Bag      Weight:   0.770 kg\n")
	assert.Contains(t, out.String(), "Total    Weight:   2.770 kg\n")
}

func TestSolve_Flags(t *testing.T) {
	var out bytes.Buffer
	in := solveInput{target: "2.9kg", bag: "0", hasTarget: true, hasBag: true}
	params := algorithm.DefaultParams()
	params.AllowOvershoot = false

	err := solve(strings.NewReader(""), &out, map[int]int{1000: 3}, in, params, true)
	require.NoError(t, err)

	got := out.String()
	assert.NotContains(t, got, "Target  Weight [kg]")
	assert.Contains(t, got, "Total    Weight:   2.000 kg (-900 g)\n")
}

func TestSolve_MalformedTarget(t *testing.T) {
	var out bytes.Buffer

	err := solve(strings.NewReader("ten\n"), &out, map[int]int{500: 1}, solveInput{}, algorithm.DefaultParams(), false)
	assert.ErrorIs(t, err, mass.ErrMalformedMass)
}

func TestSolve_NoInput(t *testing.T) {
	var out bytes.Buffer

	err := solve(strings.NewReader(""), &out, map[int]int{500: 1}, solveInput{}, algorithm.DefaultParams(), false)
	assert.Error(t, err)
}

func TestParseBottlesJSON(t *testing.T) {
	bottles, err := parseBottlesJSON([]byte(`{"500": 2, "750.0": 1}`))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{500: 2, 750: 1}, bottles)

	_, err = parseBottlesJSON([]byte(`{"500": -1}`))
	assert.ErrorIs(t, err, algorithm.ErrInvalidInput)

	_, err = parseBottlesJSON([]byte(`[500]`))
	assert.Error(t, err)
}

func TestParseBottleArgs(t *testing.T) {
	bottles, err := parseBottleArgs([]string{"330=4", "1000 = 2"})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{330: 4, 1000: 2}, bottles)

	for _, args := range [][]string{{"330"}, {"330=x"}, {"330=-1"}, {"abc=2"}} {
		_, err := parseBottleArgs(args)
		assert.Error(t, err, "%v", args)
	}
}
