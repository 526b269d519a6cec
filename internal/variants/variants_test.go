package variants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	cases := []struct {
		raw      string
		expected []string
	}{
		{raw: "book one", expected: []string{"book one", "book 1"}},
		{raw: "book 1", expected: []string{"book 1", "book one"}},
		{raw: "  The   Three Body  Problem ", expected: []string{"The Three Body Problem", "The 3 Body Problem"}},
		{raw: "Seventeen moments of spring", expected: []string{"Seventeen moments of spring", "17 moments of spring"}},
		{raw: "catch 22", expected: []string{"catch 22"}},
		{raw: "dune", expected: []string{"dune"}},
		{raw: "someone 2 tone", expected: []string{"someone 2 tone", "someone two tone"}},
		{raw: "ONE and 20", expected: []string{"ONE and 20", "1 and 20", "ONE and twenty"}},
		{raw: "   ", expected: nil},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, Expand(test.raw), test.raw)
	}
}

func TestExpandOriginalFirst(t *testing.T) {
	for _, raw := range []string{"book one", "book 1", "two towers", "fahrenheit 451"} {
		variants := Expand(raw)
		require.NotEmpty(t, variants)
		require.Equal(t, raw, variants[0])
	}
}

func TestDigitsToNamesKeepsPaddedNumbers(t *testing.T) {
	require.Equal(t, "agent 007", DigitsToNames("agent 007"))
	require.Equal(t, "zero to twenty", DigitsToNames("0 to 20"))
	require.Equal(t, "0 to 20", NamesToDigits("zero to twenty"))
}
