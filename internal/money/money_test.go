package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/money"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"2.675", "2.68"},
		{"1.004", "1"},
		{"10", "10"},
		{"-1.005", "-1.01"},
		{"0.125", "0.13"},
	}
	for _, tc := range cases {
		got := money.Round2(money.MustParse(tc.in))
		require.True(t, money.Equal(money.MustParse(tc.want), got),
			"Round2(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestParse(t *testing.T) {
	d, err := money.Parse(" 12.34 ")
	require.NoError(t, err)
	require.True(t, money.Equal(decimal.RequireFromString("12.34"), d))

	_, err = money.Parse("")
	require.Error(t, err)

	_, err = money.Parse("abc")
	require.Error(t, err)
}

func TestEqualIgnoresExponent(t *testing.T) {
	a := decimal.RequireFromString("10.00")
	b := decimal.RequireFromString("10")
	require.True(t, money.Equal(a, b))
	require.False(t, money.Equal(a, decimal.RequireFromString("10.01")))
}
