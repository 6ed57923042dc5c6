package amount_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/lendflow/internal/amount"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int64
		wantOK bool
	}{
		{"thousands shorthand", "50k", 50_000, true},
		{"uppercase shorthand", "5K", 5_000, true},
		{"lakh", "2 lakh", 200_000, true},
		{"decimal lakh", "2.5 lakh", 250_000, true},
		{"leading dot lakh", ".5 lakh", 50_000, true},
		{"leading dot crore", "rs .25 cr", 2_500_000, true},
		{"lac spelling", "1 lac", 100_000, true},
		{"lack misspelling", "1 lack", 100_000, true},
		{"plural lakhs", "I want a loan of 2 lakhs", 200_000, true},
		{"crore short", "1.5 cr", 15_000_000, true},
		{"crore glued", "2.3cr", 23_000_000, true},
		{"crore word", "1 crore", 10_000_000, true},
		{"bare number", "75000", 75_000, true},
		{"indian grouping", "1,00,000", 100_000, true},
		{"bare decimal truncates", "1234.99", 1_234, true},
		{"rupee symbol", "₹50000", 50_000, true},
		{"rs suffix", "10000rs", 10_000, true},
		{"rupees word", "rupees 2 lakh", 200_000, true},
		{"thousand word", "20 thousand", 20_000, true},
		{"fallback first integer", "around 42 or 43", 42, true},
		{"letters around k ignored", "i make 35000", 35_000, true},
		{"no number", "no idea", 0, false},
		{"empty", "   ", 0, false},
		{"multiplier without number", "a few lakh", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := amount.Parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseIncome(t *testing.T) {
	v, ok, ctx := amount.ParseIncome("income is 20k")
	assert.True(t, ok)
	assert.True(t, ctx)
	assert.Equal(t, int64(20_000), v)

	v, ok, ctx = amount.ParseIncome("My salary is 35,000 per month")
	assert.True(t, ok)
	assert.True(t, ctx)
	assert.Equal(t, int64(35_000), v)

	// Keywords are reported but never gate extraction.
	v, ok, ctx = amount.ParseIncome("20000")
	assert.True(t, ok)
	assert.False(t, ctx)
	assert.Equal(t, int64(20_000), v)

	_, ok, ctx = amount.ParseIncome("my monthly income is private")
	assert.False(t, ok)
	assert.True(t, ctx)
}

func TestMultipliers_ScanOrder(t *testing.T) {
	for i := 1; i < len(amount.Multipliers); i++ {
		prev, cur := amount.Multipliers[i-1], amount.Multipliers[i]
		if len(prev.Word) == len(cur.Word) {
			assert.Less(t, prev.Word, cur.Word)
		} else {
			assert.Greater(t, len(prev.Word), len(cur.Word))
		}
	}
	assert.Equal(t, "thousands", amount.Multipliers[0].Word)
	assert.Equal(t, "k", amount.Multipliers[len(amount.Multipliers)-1].Word)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1500000", amount.Normalize("  15,00,000 "))
	assert.Equal(t, "2 lakh", amount.Normalize("2 LAKH"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"0", 2, "0.00"},
		{"999.5", 2, "999.50"},
		{"16666.666", 2, "16,666.67"},
		{"200000", 0, "200,000"},
		{"-1234567.891", 2, "-1,234,567.89"},
		// Beyond float64 precision the cents must survive.
		{"4503599627370495.99", 2, "4,503,599,627,370,495.99"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, amount.Format(decimal.RequireFromString(tt.in), tt.places))
		})
	}
}
