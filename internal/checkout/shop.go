package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/config"
)

const (
	BasketFirstStep   = "link=1. Cart"
	BasketNextStep    = "//button[text()='Continue to the next step']"
	ChangeAddress     = "userChangeAddress"
	InvoiceCountry    = "//select[@id='invCountrySelect']"
	LoginBoxOpener    = "id=loginBoxOpener"
	LoginBox          = "id=loginBox"
	LoginBoxUser      = "//div[@id='loginBox']//input[@name='lgn_usr']"
	LoginBoxPassword  = "//div[@id='loginBox']//input[@name='lgn_pwd']"
	LoginBoxSubmit    = "//div[@id='loginBox']//button[@type='submit']"
	BasketGrandTotal  = "//div[@id='basketSummary']//tr[5]"
	DisplayCartOption = "displayCartInPayPal"
	DisplayCartOn     = "//input[@name='displayCartInPayPal' and @value='1']"
	AddShipAddress    = "id=addShipAddress"
	AddToBasketButton = "//form[@name='tobasketsearchList_1']//button"
	DisplayCartLink   = "link=Display cart"
)

// Cart is what the basket must show before leaving for PayPal.
type Cart struct {
	Product    string
	GrandTotal string
}

// DefaultCart is the basket the demo data puts together.
var DefaultCart = Cart{Product: "Test product 1", GrandTotal: "Grand total: 0,99 €"}

// DefaultShippingMethods are the delivery sets the demo data offers.
var DefaultShippingMethods = []string{
	"Test Paypal:6 hour",
	"Test Paypal:12 hour",
	"Standard",
	"Example Set1: UPS 48 hours",
	"Example Set2: UPS Express 24 hours",
}

const belgiumAddress = "Test address in Belgium 15, Antwerp, Belgium"

// WaitForShop waits until the shop page is back.
func (f *Flow) WaitForShop(ctx context.Context) error {
	return f.WaitForElement(ctx, ShopBreadCrumb, 10)
}

// AddToBasket puts the first search hit into the basket and opens it.
func (f *Flow) AddToBasket(ctx context.Context) error {
	if err := f.click(ctx, AddToBasketButton); err != nil {
		return err
	}
	if err := f.WaitForElement(ctx, DisplayCartLink, 5); err != nil {
		return err
	}
	if err := f.click(ctx, DisplayCartLink); err != nil {
		return err
	}
	return f.WaitForShop(ctx)
}

func (f *Flow) ClickFirstStepInShopBasket(ctx context.Context) error {
	if err := f.click(ctx, BasketFirstStep); err != nil {
		return err
	}
	return f.WaitForShop(ctx)
}

func (f *Flow) ClickNextStepInShopBasket(ctx context.Context) error {
	if err := f.click(ctx, BasketNextStep); err != nil {
		return err
	}
	return f.WaitForShop(ctx)
}

// ChangeCountryInBasketStepTwo switches the invoice country and moves on.
func (f *Flow) ChangeCountryInBasketStepTwo(ctx context.Context, country string) error {
	if err := f.click(ctx, ChangeAddress); err != nil {
		return err
	}
	option := fmt.Sprintf("%s/option[text()='%s']", InvoiceCountry, country)
	if err := f.WaitForElement(ctx, option, 10); err != nil {
		return err
	}
	if err := f.d.Select(ctx, InvoiceCountry, country); err != nil {
		return err
	}
	return f.ClickNextStepInShopBasket(ctx)
}

// SelectDeliveryAddressBelgium adds the Belgian delivery address unless the
// user already has it, then picks it.
func (f *Flow) SelectDeliveryAddressBelgium(ctx context.Context) error {
	present, err := f.d.TextPresent(ctx, belgiumAddress)
	if err != nil {
		return err
	}
	if !present {
		if err := f.click(ctx, AddShipAddress); err != nil {
			return err
		}
		if err := f.d.Select(ctx, "country_code", "Belgium"); err != nil {
			return err
		}
		if err := f.typeInto(ctx, "id=shipping_address1", "Test address in Belgium 15"); err != nil {
			return err
		}
		if err := f.typeInto(ctx, "id=shipping_city", "Antwerp"); err != nil {
			return err
		}
		if err := f.click(ctx, "//input[@id='continueBabySlider']"); err != nil {
			return err
		}
	}
	return f.click(ctx, fmt.Sprintf("//label[@class='radio' and contains(.,'%s')]/input", belgiumAddress))
}

// LoginToShopFrontend logs the shop customer in from the basket and checks
// the basket is ready for express checkout. Empty arguments fall back to the
// configured shop credentials.
func (f *Flow) LoginToShopFrontend(ctx context.Context, user, password string, cart Cart) error {
	var err error
	if user == "" {
		if user, err = f.creds.Credential(config.ShopLogin); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = f.creds.Credential(config.ShopPassword); err != nil {
			return err
		}
	}

	if err := f.click(ctx, LoginBoxOpener); err != nil {
		return err
	}
	if err := f.WaitForElement(ctx, LoginBox, 5); err != nil {
		return err
	}
	if err := f.typeInto(ctx, LoginBoxUser, user); err != nil {
		return err
	}
	if err := f.typeInto(ctx, LoginBoxPassword, password); err != nil {
		return err
	}
	if err := f.click(ctx, LoginBoxSubmit); err != nil {
		return err
	}

	if err := f.WaitForElement(ctx, ExpressCheckout, 10); err != nil {
		return fmt.Errorf("PayPal express button not displayed in the cart: %w", err)
	}
	return f.AssertCart(ctx, cart)
}

// AssertCart checks the basket page and reports every difference at once.
func (f *Flow) AssertCart(ctx context.Context, cart Cart) error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	check(f.expectElement(ctx, "link="+cart.Product, "purchased product name is not displayed"))
	check(f.expectElement(ctx, "//tr[@id='cartItem_1']/td[3]/div[2]", "cart item price is not displayed"))
	check(f.expectText(ctx, BasketGrandTotal, cart.GrandTotal, "grand total is not displayed correctly"))
	check(f.expectTextPresent(ctx, "Shipping costs:", "shipping costs are not displayed"))
	check(f.expectTextPresent(ctx, "Display cart in PayPal", "display cart in PayPal label is not displayed"))
	check(f.expectElement(ctx, DisplayCartOption, "display cart in PayPal checkbox is not displayed"))

	on, err := f.d.IsChecked(ctx, DisplayCartOn)
	switch {
	case err != nil:
		errs = append(errs, err)
	case !on:
		errs = append(errs, fmt.Errorf("%w: display cart in PayPal is not checked", ErrAssertion))
	}

	return errors.Join(errs...)
}

// AssertShippingMethodsDisplayed checks every method is offered. Without
// arguments DefaultShippingMethods are checked.
func (f *Flow) AssertShippingMethodsDisplayed(ctx context.Context, methods ...string) error {
	if len(methods) == 0 {
		methods = DefaultShippingMethods
	}
	var errs []error
	for _, m := range methods {
		if err := f.expectTextPresent(ctx, m, "not all available shipping methods are displayed"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Flow) expectElement(ctx context.Context, locator, msg string) error {
	present, err := f.d.ElementPresent(ctx, locator)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %s: %s missing", ErrAssertion, msg, locator)
	}
	return nil
}

func (f *Flow) expectTextPresent(ctx context.Context, text, msg string) error {
	present, err := f.d.TextPresent(ctx, text)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %s: %q missing", ErrAssertion, msg, text)
	}
	return nil
}

// expectText compares the element text with whitespace collapsed.
func (f *Flow) expectText(ctx context.Context, locator, want, msg string) error {
	got, err := f.d.Text(ctx, locator)
	if err != nil {
		return err
	}
	if got = strings.Join(strings.Fields(got), " "); got != want {
		return fmt.Errorf("%w: %s: got %q, want %q", ErrAssertion, msg, got, want)
	}
	return nil
}
