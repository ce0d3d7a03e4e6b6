package token

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func amount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad amount " + s)
	}
	return v
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1000.0000", Format(amount("1000000000000000000000")))
	require.Equal(t, "500.0000", Format(amount("500000000000000000000")))
	require.Equal(t, "0.0000", Format(big.NewInt(0)))
	require.Equal(t, "0.0000", Format(nil))

	// Truncated, not rounded
	require.Equal(t, "1.9999", Format(amount("1999999999999999999")))

	// Sub-display dust
	require.Equal(t, "0.0000", Format(big.NewInt(1)))

	require.Equal(t, "-12.5000", Format(amount("-12500000000000000000")))
}

func TestParse(t *testing.T) {
	parsed, err := Parse("1000")
	require.NoError(t, err)
	require.Equal(t, amount("1000000000000000000000"), parsed)

	parsed, err = Parse("0.5")
	require.NoError(t, err)
	require.Equal(t, amount("500000000000000000"), parsed)

	parsed, err = Parse("-2.25")
	require.NoError(t, err)
	require.Equal(t, amount("-2250000000000000000"), parsed)

	// Digits beyond the token precision are dropped
	parsed, err = Parse("1.0000000000000000009")
	require.NoError(t, err)
	require.Equal(t, amount("1000000000000000000"), parsed)

	for _, input := range []string{"", " ", "abc", "1.2.3", "1,5", "0x10"} {
		_, err = Parse(input)
		require.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	original := amount("1000000000000000000000")

	display := Format(original)
	require.Equal(t, "1000.0000", display)

	parsed, err := Parse(display)
	require.NoError(t, err)
	require.Zero(t, original.Cmp(parsed))
}

func TestFormatAddress(t *testing.T) {
	require.Equal(t, "0x742d...fE00", FormatAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f8fE00", 4))
	require.Equal(t, "", FormatAddress("", 4))
	require.Equal(t, "0x1234", FormatAddress("0x1234", 4))
}

func TestParseRepo(t *testing.T) {
	owner, name, err := ParseRepo("ethereum/go-ethereum")
	require.NoError(t, err)
	require.Equal(t, "ethereum", owner)
	require.Equal(t, "go-ethereum", name)

	owner, name, err = ParseRepo("https://github.com/vercel/next.js")
	require.NoError(t, err)
	require.Equal(t, "vercel", owner)
	require.Equal(t, "next.js", name)

	_, _, err = ParseRepo("not a repo")
	require.Error(t, err)
}

func TestIsValidPRNumber(t *testing.T) {
	require.True(t, IsValidPRNumber("28547"))
	require.True(t, IsValidPRNumber("1"))
	require.False(t, IsValidPRNumber(""))
	require.False(t, IsValidPRNumber("0"))
	require.False(t, IsValidPRNumber("000"))
	require.False(t, IsValidPRNumber("-5"))
	require.False(t, IsValidPRNumber("12a"))
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now().Unix()
	require.Equal(t, "just now", FormatRelativeTime(now))
	require.Equal(t, "5m ago", FormatRelativeTime(now-5*60))
	require.Equal(t, "3h ago", FormatRelativeTime(now-3*3600))
	require.Equal(t, "2d ago", FormatRelativeTime(now-2*86400))
}
