package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *time.Time
	}{
		{name: "two digit fields", input: "01/05/24", expected: date(2024, 5, 1)},
		{name: "single digit day and month", input: "1/5/24", expected: date(2024, 5, 1)},
		{name: "surrounding whitespace", input: "  31/12/23 ", expected: date(2023, 12, 31)},
		{name: "late century", input: "15/06/99", expected: date(1999, 6, 15)},
		{name: "empty", input: "", expected: nil},
		{name: "four digit year", input: "01/05/2024", expected: nil},
		{name: "iso layout", input: "2024-05-01", expected: nil},
		{name: "impossible day", input: "32/01/24", expected: nil},
		{name: "garbage", input: "mañana", expected: nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ParseDate(test.input)
			if test.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, test.expected.Equal(*got), "got %s", got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "100.00", expected: "100"},
		{name: "internal spaces", input: "1 234.5", expected: "1234.5"},
		{name: "surrounding whitespace", input: "\t 3 ", expected: "3"},
		{name: "negative", input: "-2.5", expected: "-2.5"},
		{name: "exponent", input: "1e3", expected: "1000"},
		{name: "exact tenths", input: "0.1", expected: "0.1"},
		{name: "beyond float range", input: "1e400", expected: "1" + strings.Repeat("0", 400)},
		{name: "empty", input: ""},
		{name: "only spaces", input: "   "},
		{name: "comma decimal", input: "1,5"},
		{name: "text", input: "n/a"},
		{name: "infinity", input: "inf"},
		{name: "signed infinity", input: "-Infinity"},
		{name: "not a number", input: "NaN"},
		{name: "hex float", input: "0x1p3"},
		{name: "absurd exponent", input: "1e999999"},
		{name: "absurd negative exponent", input: "1e-999999"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ParseDecimal(test.input)
			if test.expected == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, test.expected, got.String())
		})
	}
}

func TestParseDecimal_KeepsExactValue(t *testing.T) {
	a := ParseDecimal("0.1")
	b := ParseDecimal("0.2")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "0.3", a.Add(*b).String())
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "RET", Trim("  RET\r"))
	assert.Equal(t, "", Trim(""))
	assert.Equal(t, "a b", Trim("\ta b "))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
