package receipt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/receipt"
)

func TestPrintOneItem(t *testing.T) {
	r := receipt.New()
	r.AddProduct(toothbrush, d("1"), toothbrushCost, toothbrushCost)

	want := "toothbrush                          0.99\n" +
		"\n" +
		"Total:                              0.99\n"
	require.Equal(t, want, receipt.Printer{}.Print(r))
}

func TestPrintFractionKilo(t *testing.T) {
	r := receipt.New()
	r.AddProduct(apples, d("0.75"), applesCost, d("1.4925"))

	want := "apples                              1.49\n" +
		"  1.99 * 0.750\n" +
		"\n" +
		"Total:                              1.49\n"
	require.Equal(t, want, receipt.Printer{Columns: 40}.Print(r))
}

func TestPrintMultipleDiscounts(t *testing.T) {
	r := receipt.New()
	r.AddProduct(toothbrush, d("3"), toothbrushCost, d("2.97"))
	r.AddProduct(apples, d("0.75"), applesCost, d("1.4925"))
	r.AddDiscount(receipt.Discount{Product: toothbrush, Description: "3 for 2", Amount: d("-0.99")})
	r.AddDiscount(receipt.Discount{Product: apples, Description: "10.0% off", Amount: d("-0.15")})

	want := "toothbrush                          2.97\n" +
		"  0.99 * 3\n" +
		"apples                              1.49\n" +
		"  1.99 * 0.750\n" +
		"3 for 2(toothbrush)                -0.99\n" +
		"10.0% off(apples)                  -0.15\n" +
		"\n" +
		"Total:                              3.32\n"
	require.Equal(t, want, receipt.Printer{}.Print(r))
}

func TestPrintNarrowPaperNeverTruncates(t *testing.T) {
	r := receipt.New()
	r.AddProduct(toothbrush, d("1"), toothbrushCost, toothbrushCost)

	want := "toothbrush0.99\n" +
		"\n" +
		"Total: 0.99\n"
	require.Equal(t, want, receipt.Printer{Columns: 5}.Print(r))
}
