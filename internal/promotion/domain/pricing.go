package domain

// PriceWithDiscount applies a discount rule to a base price in minor units.
// FIXED discounts are capped at the base price; PERCENT discounts are
// computed with round-half-up integer arithmetic at the minor unit. The
// final price is never negative. Every price a transaction snapshots goes
// through this one function so recomputation in tests is reproducible.
func PriceWithDiscount(basePrice int64, rule DiscountRule) (finalPrice, discount int64) {
	if basePrice <= 0 {
		return 0, 0
	}

	switch rule.Type {
	case DiscountTypeFixed:
		discount = rule.Value
	case DiscountTypePercent:
		discount = (basePrice*rule.Value + 50) / 100
	default:
		discount = 0
	}

	if discount < 0 {
		discount = 0
	}
	if discount > basePrice {
		discount = basePrice
	}

	return basePrice - discount, discount
}
