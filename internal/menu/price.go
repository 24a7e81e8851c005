package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a fixed-point price in cents.
type Amount int64

// String renders the amount with two decimals, e.g. "12.50".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a/100, a%100)
}

// Confidence records how a price was resolved.
type Confidence string

const (
	// ConfidenceParsed means a number was found in the price text.
	ConfidenceParsed Confidence = "parsed"
	// ConfidenceComplimentary means the text said "complimentary".
	ConfidenceComplimentary Confidence = "complimentary"
	// ConfidenceDefaulted means nothing usable was found and the price fell back to 0.00.
	ConfidenceDefaulted Confidence = "defaulted"
)

// PriceResolution is the outcome of resolving free price text.
type PriceResolution struct {
	Amount     Amount     `json:"amount"`
	Confidence Confidence `json:"confidence"`
}

// Confident reports whether the price came from the text rather than the zero fallback.
func (p PriceResolution) Confident() bool {
	return p.Confidence != ConfidenceDefaulted
}

// ResolvePrice converts free price text into an amount. "complimentary"
// resolves to zero; otherwise the first 1-3 digit number with optional
// 1-2 decimals is used. Text without a usable number resolves to 0.00
// with ConfidenceDefaulted. ResolvePrice never fails.
func (r *Rules) ResolvePrice(text string) PriceResolution {
	if r.comp.MatchString(text) {
		return PriceResolution{Amount: 0, Confidence: ConfidenceComplimentary}
	}
	num := r.firstNumber.FindString(strings.ReplaceAll(text, "$", ""))
	if num == "" {
		return PriceResolution{Amount: 0, Confidence: ConfidenceDefaulted}
	}
	amount, ok := parseCents(num)
	if !ok {
		return PriceResolution{Amount: 0, Confidence: ConfidenceDefaulted}
	}
	return PriceResolution{Amount: amount, Confidence: ConfidenceParsed}
}

// parseCents parses "12", "12.5" or "12.50" into cents.
func parseCents(num string) (Amount, bool) {
	whole, frac, _ := strings.Cut(num, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	var cents int64
	switch len(frac) {
	case 0:
	case 1, 2:
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return Amount(units*100 + cents), true
}
