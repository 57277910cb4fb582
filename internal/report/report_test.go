package report

import (
	"bytes"
	"testing"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviation(t *testing.T) {
	tests := []struct {
		name          string
		target, total int
		want          string
	}{
		{"exact", 3000, 3000, ""},
		{"within threshold", 3000, 3009, ""},
		{"within threshold below", 3000, 2991, ""},
		{"grams over", 3000, 3010, "+10 g"},
		{"grams under", 3000, 2850, "-150 g"},
		{"kilograms over", 1000, 2500, "+1.500 kg"},
		{"kilograms under", 5000, 3000, "-2.000 kg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Deviation(tt.target, tt.total))
		})
	}
}

func TestWrite(t *testing.T) {
	result := algorithm.Result{
		Combo:        map[int]int{330: 1, 1000: 2},
		TotalWeight:  3100,
		BottleWeight: 2330,
		BottlesUsed:  3,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 3000, 770, result))

	want := "\n" +
		"Target   Weight:   3.000 kg\n" +
		"Bag      Weight:   0.770 kg\n" +
		"Bottles  Weight:   2.330 kg\n" +
		"Total    Weight:   3.100 kg (+100 g)\n" +
		"\n" +
		"Total Bottles Used:  3\n" +
		"Bottle  Combo: \n" +
		" *   2  bottles of  1.00 kg =   2.000 kg\n" +
		" *   1  bottle  of   330 g  =   0.330 kg\n" +
		"\n"

	assert.Equal(t, want, buf.String())
}

func TestWrite_EmptyCombo(t *testing.T) {
	result := algorithm.Result{
		Combo:       map[int]int{},
		TotalWeight: 770,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 0, 770, result))

	assert.Contains(t, buf.String(), "Total    Weight:   0.770 kg (+770 g)\n")
	assert.Contains(t, buf.String(), "Total Bottles Used:  0\n")
}
