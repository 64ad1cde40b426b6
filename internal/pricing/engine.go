package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor currency units (paise).
type Money = int64

// Line describes a cart line item used for the breakdown calculation.
type Line struct {
	ItemID    string
	Qty       int
	UnitPrice Money
}

// Params holds the configured pricing rule inputs. Threshold is in minor
// units; rates are expressed in basis points.
type Params struct {
	DiscountThreshold Money
	DiscountRateBps   int
	TaxRateBps        int
}

// Breakdown aggregates the computed pricing components. All fields are in
// minor units and derive deterministically from the input lines.
type Breakdown struct {
	Subtotal Money `json:"subtotal"`
	Discount Money `json:"discount"`
	Taxable  Money `json:"taxable"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

var (
	// ErrNegativePrice is returned when a line carries a negative unit price.
	ErrNegativePrice = errors.New("pricing: unit price must be non-negative")
	// ErrInvalidQty is returned when a line quantity is zero or negative.
	ErrInvalidQty = errors.New("pricing: quantity must be positive")
)

// Compute calculates the cart breakdown for the provided lines. The discount
// applies only when the subtotal strictly exceeds the threshold; a cart
// exactly at the threshold receives none. An empty cart yields a zero
// breakdown. Compute has no side effects and is safe for concurrent use.
func Compute(lines []Line, p Params) (Breakdown, error) {
	var subtotal Money
	for i, ln := range lines {
		if ln.UnitPrice < 0 {
			return Breakdown{}, fmt.Errorf("line %d: %w", i, ErrNegativePrice)
		}
		if ln.Qty <= 0 {
			return Breakdown{}, fmt.Errorf("line %d: %w", i, ErrInvalidQty)
		}
		subtotal += Money(ln.Qty) * ln.UnitPrice
	}

	var discount Money
	if subtotal > p.DiscountThreshold {
		discount = subtotal * Money(p.DiscountRateBps) / 10_000
	}
	if discount > subtotal {
		discount = subtotal
	}
	taxable := subtotal - discount
	tax := taxable * Money(p.TaxRateBps) / 10_000
	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable + tax,
	}, nil
}

// MinorFromDecimal converts a decimal currency string (e.g. "220" or
// "1039.50") into minor units. Fractions beyond two places round
// half-away-from-zero, the rule used for every amount handed to the gateway.
func MinorFromDecimal(value string) (Money, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("pricing: empty amount")
	}
	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = trimmed[1:]
	}
	whole, frac := trimmed, ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		whole, frac = trimmed[:idx], trimmed[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pricing: invalid amount %q: %w", value, err)
	}
	minor := units * 100

	if frac != "" {
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("pricing: invalid amount %q", value)
			}
		}
		// Normalise the fraction to three digits so a single half-away
		// rounding step suffices.
		padded := (frac + "000")[:3]
		cents, err := strconv.ParseInt(padded[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("pricing: invalid amount %q: %w", value, err)
		}
		if padded[2] >= '5' {
			cents++
		}
		minor += cents
	}
	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatMinor renders a minor-unit amount as a decimal string for display.
func FormatMinor(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}
