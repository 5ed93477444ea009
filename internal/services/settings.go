package services

import (
	"os"

	"github.com/shopspring/decimal"
)

var defaultFeeRatio = decimal.NewFromFloat(0.5)

// PlatformFeeRatio is the configured fraction of each creator subtotal kept
// by the platform.
func PlatformFeeRatio() decimal.Decimal {
	raw := os.Getenv("PLATFORM_FEE_RATIO")
	if raw == "" {
		return defaultFeeRatio
	}
	ratio, err := decimal.NewFromString(raw)
	if err != nil || ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return defaultFeeRatio
	}
	return ratio
}
