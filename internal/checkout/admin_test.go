package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOrderPayPalTabPrices(t *testing.T) {
	d := newFakeDriver()
	d.values["//table[@class='paypalActionsTable']/tbody/tr[2]/td[2]/b"] = "55,55 EUR"
	d.values["//table[@class='paypalActionsTable']/tbody/tr[3]/td[2]/b"] = "55,55 EUR"
	d.values["//table[@class='paypalActionsTable']/tbody/tr[4]/td[2]/b"] = "0,00 EUR"
	d.values["//table[@class='paypalActionsTable']/tbody/tr[5]/td[2]/b"] = "55,55 EUR"
	d.values["//table[@class='paypalActionsTable']/tbody/tr[6]/td[2]/b"] = "0,00 EUR"
	f := newTestFlow(d, buyer())

	require.NoError(t, f.CheckOrderPayPalTabPrices(context.Background(), "55,55", "55,55"))

	d.values["//table[@class='paypalActionsTable']/tbody/tr[4]/td[2]/b"] = "10,00 EUR"
	err := f.CheckOrderPayPalTabPrices(context.Background(), "55,55", "55,55")
	require.ErrorIs(t, err, ErrAssertion)
	assert.Contains(t, err.Error(), "refunded amount is not displayed in admin PayPal tab")
}

func TestCheckOrderPayPalTabHistory(t *testing.T) {
	d := newFakeDriver()
	d.values["//table[@id='historyTable']/tbody/tr[2]/td[2]"] = "capture"
	d.values["//table[@id='historyTable']/tbody/tr[2]/td[3]"] = "55,55 EUR"
	d.values["//table[@id='historyTable']/tbody/tr[2]/td[4]"] = "Completed"
	f := newTestFlow(d, buyer())

	assert.NoError(t, f.CheckOrderPayPalTabHistory(context.Background(), "capture", "55,55", "Completed"))

	err := f.CheckOrderPayPalTabHistory(context.Background(), "refund", "55,55", "Completed")
	assert.ErrorIs(t, err, ErrAssertion)
}

func TestCheckOrderPayPalTabProducts(t *testing.T) {
	d := newFakeDriver()
	d.values["//tr[@id='art.1']/td"] = "1"
	d.values["//tr[@id='art.1']/td[2]"] = "8a142c3e4143562a5.46426637"
	d.values["//tr[@id='art.1']/td[3]"] = "Test product 1"
	d.values["//tr[@id='art.1']/td[4]"] = "0,99 EUR"
	f := newTestFlow(d, buyer())

	err := f.CheckOrderPayPalTabProducts(context.Background(), OrderedProduct{
		Quantity:   "1",
		Number:     "8a142c3e4143562a5.46426637",
		Title:      "Test product 1",
		GrossPrice: "0,99",
		TotalPrice: "0,99",
		VAT:        "19",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound, "missing cells are reported as not found")
	assert.Contains(t, err.Error(), "Element '//tr[@id='art.1']/td[6]' was not found!")
	assert.NotContains(t, err.Error(), "td[4]")
}
