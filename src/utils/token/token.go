// Package token converts between the MNEE fixed-point integer representation
// (18 fractional digits) and the strings shown to users.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	// ERC-20 decimals of the MNEE token
	Decimals = 18

	// Fractional digits kept in display strings
	DisplayDecimals = 4
)

var (
	ErrInvalidAmount = errors.New("invalid token amount")

	repoUrlRegex    = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)
	repoSimpleRegex = regexp.MustCompile(`^([^/]+)/([^/]+)$`)
	prNumberRegex   = regexp.MustCompile(`^[0-9]+$`)
)

// Format renders a fixed-point integer amount as "1000.0000".
// Digits beyond DisplayDecimals are truncated, not rounded.
func Format(amount *big.Int) string {
	return FormatWithDecimals(amount, Decimals, DisplayDecimals)
}

func FormatWithDecimals(amount *big.Int, decimals, displayDecimals int) string {
	if amount == nil {
		return "0." + strings.Repeat("0", displayDecimals)
	}

	abs := new(big.Int).Abs(amount)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	integerPart := new(big.Int).Div(abs, divisor)
	fractionalPart := new(big.Int).Mod(abs, divisor)

	fractionalStr := fmt.Sprintf("%0*s", decimals, fractionalPart.String())[:displayDecimals]

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}
	return sign + integerPart.String() + "." + fractionalStr
}

// Parse is the inverse of Format. Fractional digits beyond the token's
// precision are dropped.
func Parse(s string) (*big.Int, error) {
	return ParseWithDecimals(s, Decimals)
}

func ParseWithDecimals(s string, decimals int) (amount *big.Int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	integerPart, fractionalPart, _ := strings.Cut(s, ".")
	if integerPart == "" {
		integerPart = "0"
	}
	if !isDigits(integerPart) || (fractionalPart != "" && !isDigits(fractionalPart)) {
		return nil, ErrInvalidAmount
	}

	if len(fractionalPart) > decimals {
		fractionalPart = fractionalPart[:decimals]
	}
	padded := fractionalPart + strings.Repeat("0", decimals-len(fractionalPart))

	amount, ok := new(big.Int).SetString(integerPart+padded, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if negative {
		amount.Neg(amount)
	}
	return amount, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FormatAddress shortens an address for display: "0x742d...fE00"
func FormatAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= 2*chars+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}

// FormatRelativeTime renders a unix timestamp as "2d ago", "3h ago", "5m ago"
// or "just now".
func FormatRelativeTime(unix int64) string {
	diff := time.Since(time.Unix(unix, 0))

	days := int(diff.Hours()) / 24
	hours := int(diff.Hours())
	minutes := int(diff.Minutes())

	switch {
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh ago", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm ago", minutes)
	default:
		return "just now"
	}
}

// ParseRepo accepts "owner/repo" or a github.com URL
func ParseRepo(input string) (owner, name string, err error) {
	if match := repoUrlRegex.FindStringSubmatch(input); match != nil {
		return match[1], strings.TrimSuffix(match[2], ".git"), nil
	}
	if match := repoSimpleRegex.FindStringSubmatch(input); match != nil {
		return match[1], match[2], nil
	}
	return "", "", fmt.Errorf("cannot parse repository from %q", input)
}

func IsValidPRNumber(prNumber string) bool {
	return prNumberRegex.MatchString(prNumber) && strings.TrimLeft(prNumber, "0") != ""
}
