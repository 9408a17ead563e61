package cart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
)

var (
	teaBag = catalog.NewProduct("tea bag", catalog.UnitEach)
	apples = catalog.NewProduct("apples", catalog.UnitKilo)
)

func TestAddItemAccumulates(t *testing.T) {
	c := cart.New()
	c.AddItem(teaBag)
	c.AddItem(teaBag)

	require.Equal(t, 1, c.Len())
	require.True(t, decimal.NewFromInt(2).Equal(c.Quantity(teaBag)))
}

func TestAddItemQuantityKeepsInsertionOrder(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItemQuantity(apples, decimal.RequireFromString("0.75")))
	c.AddItem(teaBag)
	require.NoError(t, c.AddItemQuantity(apples, decimal.RequireFromString("0.5")))

	lines := c.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, apples, lines[0].Product)
	require.True(t, decimal.RequireFromString("1.25").Equal(lines[0].Quantity))
	require.Equal(t, teaBag, lines[1].Product)
}

func TestAddItemQuantityRejectsNegative(t *testing.T) {
	c := cart.New()
	err := c.AddItemQuantity(apples, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
	require.Zero(t, c.Len())
}

func TestLinesReturnsCopy(t *testing.T) {
	c := cart.New()
	c.AddItem(teaBag)
	lines := c.Lines()
	lines[0].Quantity = decimal.NewFromInt(99)
	require.True(t, decimal.NewFromInt(1).Equal(c.Quantity(teaBag)))
}

func TestZeroValueCartIsUsable(t *testing.T) {
	var c cart.Cart
	c.AddItem(apples)
	require.Equal(t, 1, c.Len())
	require.True(t, c.Quantity(teaBag).IsZero())
}

func TestAddItemQuantityEnforcesLimits(t *testing.T) {
	c := cart.NewWithLimits(cart.Limits{MaxQuantity: decimal.NewFromInt(10), MaxFractionDigits: 3})

	cases := map[string]string{
		"above maximum":   "10.001",
		"too many places": "0.0005",
		"huge exponent":   "1e40000000",
		"tiny exponent":   "1e-40000000",
		"too many digits": "1.000000000000000000000000000000001",
		"negative huge":   "-1e40000000",
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.AddItemQuantity(apples, decimal.RequireFromString(q))
			require.ErrorIs(t, err, cart.ErrQuantityLimit)
		})
	}
	require.Zero(t, c.Len())

	require.NoError(t, c.AddItemQuantity(apples, decimal.RequireFromString("9.500")))
	require.NoError(t, c.AddItemQuantity(apples, decimal.RequireFromString("0.5")))
	err := c.AddItem(apples)
	require.ErrorIs(t, err, cart.ErrQuantityLimit)
	require.True(t, decimal.NewFromInt(10).Equal(c.Quantity(apples)))
}

func TestZeroLimitsFallBackToDefaults(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItemQuantity(apples, decimal.RequireFromString("10000")))
	require.ErrorIs(t, c.AddItemQuantity(teaBag, decimal.RequireFromString("0.0001")), cart.ErrQuantityLimit)
}
