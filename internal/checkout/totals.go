package checkout

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

// ShippingMethod selects one of the storefront's flat shipping options.
type ShippingMethod string

const (
	ShippingFree      ShippingMethod = "free"
	ShippingExpedited ShippingMethod = "expedited"
)

// LineItem is the minimal view of a purchasable line used for totals.
type LineItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	ImageURL  string
}

// Quote is a fully computed order total. All amounts are major currency
// units; AmountMinorUnits converts the final total for the payment provider.
type Quote struct {
	Subtotal     decimal.Decimal
	DiscountRate decimal.Decimal
	Discount     decimal.Decimal
	ShippingCost decimal.Decimal
	FinalTotal   decimal.Decimal
}

// Subtotal sums price times quantity across the given lines.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(item.Price.Mul(qty))
	}
	return total
}

// ComputeQuote applies the discount rate and shipping cost to the items.
// The final total never drops below zero; the upstream recomputes and
// reconciles its own figure at order-update time.
func ComputeQuote(items []LineItem, discountRate, shippingCost decimal.Decimal) (Quote, error) {
	if discountRate.IsNegative() || discountRate.GreaterThan(decimal.NewFromInt(1)) {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "discount rate must be between 0 and 1")
	}
	if shippingCost.IsNegative() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost must be non-negative")
	}

	subtotal := Subtotal(items)
	discount := subtotal.Mul(discountRate)
	final := subtotal.Sub(discount).Add(shippingCost)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return Quote{
		Subtotal:     subtotal,
		DiscountRate: discountRate,
		Discount:     discount,
		ShippingCost: shippingCost,
		FinalTotal:   final,
	}, nil
}

// AmountMinorUnits converts a major-unit total into the rounded minor-unit
// amount the payment provider expects.
func AmountMinorUnits(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
