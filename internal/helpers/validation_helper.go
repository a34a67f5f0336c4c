package helpers

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// NativeDecimals is the fixed-point precision of the native token
const NativeDecimals = 18

// IsAddressValid checks if the provided string is a valid Ethereum address
// It verifies:
// 1. The address is exactly 42 characters long (including 0x prefix)
// 2. The address starts with "0x"
// 3. The remaining 40 characters are valid hexadecimal
// No checksum validation is performed; any capitalization is accepted.
func IsAddressValid(address string) bool {
	// Check length
	if len(address) != 42 {
		return false
	}

	// Check "0x" prefix
	if !strings.HasPrefix(address, "0x") {
		return false
	}

	// Check if the address contains only hex characters after the 0x prefix
	for _, c := range address[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}

	return true
}

// ParseUnits converts a human-readable decimal string into an integer in the
// asset's smallest unit at the given precision. It fails with InvalidAmount
// when the string is not a valid non-negative decimal or carries more
// fractional digits than the precision can represent exactly.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "decimals must be non-negative")
	}

	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, business.NewError(business.ErrInvalidAmount, "amount is empty")
	}

	whole := amount
	frac := ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole = amount[:idx]
		frac = amount[idx+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, business.NewError(business.ErrInvalidAmount, fmt.Sprintf("invalid decimal %q", amount))
		}
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, business.NewError(business.ErrInvalidAmount, fmt.Sprintf("invalid decimal %q", amount))
	}
	if len(frac) > decimals {
		return nil, business.NewError(business.ErrInvalidAmount,
			fmt.Sprintf("amount %q exceeds %d decimal places", amount, decimals))
	}

	// Scale the fractional part up to the full precision
	frac += strings.Repeat("0", decimals-len(frac))

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, business.NewError(business.ErrInvalidAmount, fmt.Sprintf("invalid decimal %q", amount))
	}
	return value, nil
}

// FormatUnits renders an integer amount in smallest units as a decimal string
// at the given precision, trimming trailing fractional zeros.
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		return value.String()
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, scale, new(big.Int))

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	return whole.String() + "." + fracStr
}

// isDigits reports whether s is a non-empty run of ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
