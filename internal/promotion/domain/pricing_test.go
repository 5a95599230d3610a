package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceWithDiscount(t *testing.T) {
	tests := []struct {
		name      string
		basePrice int64
		rule      DiscountRule
		wantFinal int64
		wantDisc  int64
	}{
		{
			name:      "fixed discount",
			basePrice: 20000,
			rule:      DiscountRule{Type: DiscountTypeFixed, Value: 5000},
			wantFinal: 15000,
			wantDisc:  5000,
		},
		{
			name:      "fixed discount capped at base price",
			basePrice: 3000,
			rule:      DiscountRule{Type: DiscountTypeFixed, Value: 5000},
			wantFinal: 0,
			wantDisc:  3000,
		},
		{
			name:      "percent discount",
			basePrice: 10000,
			rule:      DiscountRule{Type: DiscountTypePercent, Value: 10},
			wantFinal: 9000,
			wantDisc:  1000,
		},
		{
			name:      "percent rounds half up",
			basePrice: 999,
			rule:      DiscountRule{Type: DiscountTypePercent, Value: 15},
			wantFinal: 849,
			wantDisc:  150,
		},
		{
			name:      "percent rounds down below half",
			basePrice: 333,
			rule:      DiscountRule{Type: DiscountTypePercent, Value: 10},
			wantFinal: 300,
			wantDisc:  33,
		},
		{
			name:      "hundred percent",
			basePrice: 12345,
			rule:      DiscountRule{Type: DiscountTypePercent, Value: 100},
			wantFinal: 0,
			wantDisc:  12345,
		},
		{
			name:      "over hundred percent clamps to base",
			basePrice: 500,
			rule:      DiscountRule{Type: DiscountTypePercent, Value: 150},
			wantFinal: 0,
			wantDisc:  500,
		},
		{
			name:      "negative value treated as zero",
			basePrice: 1000,
			rule:      DiscountRule{Type: DiscountTypeFixed, Value: -200},
			wantFinal: 1000,
			wantDisc:  0,
		},
		{
			name:      "unknown type is no discount",
			basePrice: 1000,
			rule:      DiscountRule{Type: "BOGOF", Value: 50},
			wantFinal: 1000,
			wantDisc:  0,
		},
		{
			name:      "zero base price",
			basePrice: 0,
			rule:      DiscountRule{Type: DiscountTypeFixed, Value: 5000},
			wantFinal: 0,
			wantDisc:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, disc := PriceWithDiscount(tt.basePrice, tt.rule)
			assert.Equal(t, tt.wantFinal, final, "final price")
			assert.Equal(t, tt.wantDisc, disc, "discount")
			assert.Equal(t, tt.basePrice, final+disc, "final + discount must equal base")
		})
	}
}
