package billing

import (
	"strconv"
	"strings"

	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

// Discount is the outcome of applying a discount spec to a subtotal.
type Discount struct {
	Applied float64 `json:"applied"`
	Total   float64 `json:"total"`
}

// ApplyDiscount parses a discount spec and applies it to a subtotal.
//
// A trailing "%" marks a percentage, clamped to [0,100]. Anything else is a
// flat currency amount. Bare numbers are never reinterpreted as percentages
// regardless of magnitude. The applied discount is clamped to the subtotal so
// the resulting total is never negative.
func ApplyDiscount(subtotal float64, spec string) (Discount, error) {
	if subtotal < 0 {
		subtotal = 0
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Discount{Applied: 0, Total: subtotal}, nil
	}

	var applied float64
	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(spec, "%")), 64)
		if err != nil {
			return Discount{}, appErrors.Clone(appErrors.ErrValidation, "invalid discount percentage")
		}
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		applied = subtotal * pct / 100
	} else {
		amount, err := strconv.ParseFloat(spec, 64)
		if err != nil {
			return Discount{}, appErrors.Clone(appErrors.ErrValidation, "invalid discount amount")
		}
		applied = amount
	}

	if applied < 0 {
		applied = 0
	}
	if applied > subtotal {
		applied = subtotal
	}
	return Discount{Applied: applied, Total: subtotal - applied}, nil
}

// DistributeDiscount spreads a flat discount across line items greedily in
// list order: each line absorbs as much of the remaining discount as it can.
// It returns the post-discount lines and the total discount consumed.
func DistributeDiscount(lines []float64, flat float64) ([]float64, float64) {
	out := make([]float64, len(lines))
	remaining := flat
	if remaining < 0 {
		remaining = 0
	}
	consumed := 0.0
	for i, line := range lines {
		if line < 0 {
			line = 0
		}
		apply := remaining
		if apply > line {
			apply = line
		}
		out[i] = line - apply
		remaining -= apply
		consumed += apply
	}
	return out, consumed
}
