package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarcode(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "B-0001", want: "B-0001"},
		{name: "surrounding whitespace", raw: "  b-0002  ", want: "B-0002"},
		{name: "symbology identifier", raw: "]C1B-0003", want: "B-0003"},
		{name: "scanner CR suffix", raw: "B-0004\r\n", want: "B-0004"},
		{name: "lowercase typed", raw: "rl20260831a", want: "RL20260831A"},
		{name: "empty", raw: "", want: ""},
		{name: "whitespace only", raw: "   \t", want: ""},
		{name: "identifier only", raw: "]E0", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Barcode(tc.raw))
		})
	}
}
