package checkout

import (
	"context"
	"errors"
	"fmt"
)

// OrderedProduct is one row of the products table in the admin PayPal tab.
type OrderedProduct struct {
	Quantity   string
	Number     string
	Title      string
	GrossPrice string
	TotalPrice string
	VAT        string
}

const (
	actionsTable = "//table[@class='paypalActionsTable']"
	historyRow   = "//table[@id='historyTable']/tbody/tr[2]"
	productRow   = "//tr[@id='art.1']"

	// the amount column of the actions table
	priceValueColumn = 2
)

func payPalTabPrice(row, column int) string {
	return fmt.Sprintf("%s/tbody/tr[%d]/td[%d]/b", actionsTable, row, column)
}

// The admin checks expect the order's PayPal tab to be the current frame.

// CheckOrderPayPalTabPrices checks the amounts of a captured order: nothing
// refunded and nothing voided.
func (f *Flow) CheckOrderPayPalTabPrices(ctx context.Context, basketPrice, capturedPrice string) error {
	return errors.Join(
		f.expectText(ctx, payPalTabPrice(2, 2), basketPrice+" EUR", "full amount is not displayed in admin PayPal tab"),
		f.expectText(ctx, payPalTabPrice(3, priceValueColumn), capturedPrice+" EUR", "captured amount is not displayed in admin PayPal tab"),
		f.expectText(ctx, payPalTabPrice(4, priceValueColumn), "0,00 EUR", "refunded amount is not displayed in admin PayPal tab"),
		f.expectText(ctx, payPalTabPrice(5, priceValueColumn), capturedPrice+" EUR", "resulting amount is not displayed in admin PayPal tab"),
		f.expectText(ctx, payPalTabPrice(6, priceValueColumn), "0,00 EUR", "voided amount is not displayed in admin PayPal tab"),
	)
}

// CheckOrderPayPalTabHistory checks the latest entry of the payment history.
func (f *Flow) CheckOrderPayPalTabHistory(ctx context.Context, action, amount, status string) error {
	return errors.Join(
		f.expectText(ctx, historyRow+"/td[2]", action, "money action is not displayed in admin PayPal tab"),
		f.expectText(ctx, historyRow+"/td[3]", amount+" EUR", "money amount is not displayed in admin PayPal tab"),
		f.expectText(ctx, historyRow+"/td[4]", status, "money status is not displayed in admin PayPal tab"),
	)
}

func (f *Flow) CheckOrderPayPalTabProducts(ctx context.Context, p OrderedProduct) error {
	return errors.Join(
		f.expectText(ctx, productRow+"/td", p.Quantity, "product quantity"),
		f.expectText(ctx, productRow+"/td[2]", p.Number, "product number"),
		f.expectText(ctx, productRow+"/td[3]", p.Title, "product title"),
		f.expectText(ctx, productRow+"/td[4]", p.GrossPrice+" EUR", "product gross price"),
		f.expectText(ctx, productRow+"/td[5]", p.TotalPrice+" EUR", "product total price"),
		f.expectText(ctx, productRow+"/td[6]", p.VAT, "product VAT"),
	)
}
