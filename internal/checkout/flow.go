// Package checkout drives a shop checkout through PayPal: the shop basket
// steps, sandbox login on the old and the new PayPal UI, the way back to the
// shop and the admin PayPal tab of the resulting order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/config"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

const (
	LoginButtonOld       = "id=submitLogin"
	LoginButtonNew       = "id=btnLogin"
	LoginFrameName       = "injectedUl"
	LoginFrameSelector   = "//iframe[@name='injectedUl']"
	UnifiedLogin         = "id=injectedUnifiedLogin"
	ConfirmButton        = "//input[@id='confirmButtonTop']"
	ConfirmButtonID      = "id=confirmButtonTop"
	ContinueButton       = "id=continue"
	ContinueAboveFold    = "id=continue_abovefold"
	ContinueInput        = "//input[@id='continue']"
	ContinueAboveInput   = "//input[@id='continue_abovefold']"
	ShippingMethod       = "id=shipping_method"
	ShopBreadCrumb       = "id=breadCrumb"
	ExpressCheckout      = "paypalExpressCheckoutButton"
	DisplayShippingTotal = "id=displayShippingAmount"
)

// Driver is the browser surface the flow needs. browser.Manager implements it.
type Driver interface {
	triage.Page
	Frame(ctx context.Context, name string) error
	Click(ctx context.Context, locator string) error
	Type(ctx context.Context, locator, text string) error
	Select(ctx context.Context, locator, label string) error
	IsEditable(ctx context.Context, locator string) (bool, error)
	IsChecked(ctx context.Context, locator string) (bool, error)
	Text(ctx context.Context, locator string) (string, error)
}

type Credentials interface {
	Credential(name string) (string, error)
}

type Flow struct {
	d     Driver
	creds Credentials

	// Unit is the length of one wait budget step. The sandbox is slow, so it
	// defaults to seven seconds.
	Unit time.Duration
	Poll time.Duration

	newUI bool
}

func NewFlow(d Driver, creds Credentials) *Flow {
	return &Flow{
		d:     d,
		creds: creds,
		Unit:  7 * time.Second,
		Poll:  250 * time.Millisecond,
		newUI: true,
	}
}

// UseStandardCheckout switches to the new PayPal UI (login inside an iframe).
func (f *Flow) UseStandardCheckout() { f.newUI = true }

// UseExpressCheckout switches to the old PayPal UI.
func (f *Flow) UseExpressCheckout() { f.newUI = false }

func (f *Flow) NewUI() bool { return f.newUI }

func (f *Flow) budget(units int) time.Duration {
	return time.Duration(units) * f.Unit
}

// wait polls cond until it holds. Query errors are retried: the page
// navigates under a running wait and playwright then reports a destroyed
// execution context. At the deadline the last such error is kept as the
// cause of the timeout.
func (f *Flow) wait(ctx context.Context, what string, timeout time.Duration, cond func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if !time.Now().Before(deadline) {
			return &TimeoutError{What: what, Cause: lastErr}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.Poll):
		}
	}
}

func (f *Flow) WaitForElement(ctx context.Context, locator string, units int) error {
	return f.wait(ctx, locator, f.budget(units), func(ctx context.Context) (bool, error) {
		return f.d.ElementPresent(ctx, locator)
	})
}

func (f *Flow) WaitForText(ctx context.Context, text string, units int) error {
	return f.wait(ctx, text, f.budget(units), func(ctx context.Context) (bool, error) {
		return f.d.TextPresent(ctx, text)
	})
}

func (f *Flow) WaitForEditable(ctx context.Context, locator string, units int) error {
	return f.wait(ctx, locator, f.budget(units), func(ctx context.Context) (bool, error) {
		return f.d.IsEditable(ctx, locator)
	})
}

// optional swallows a timeout; the caller checks the page afterwards.
func optional(err error) error {
	if _, ok := err.(*TimeoutError); ok {
		return nil
	}
	return err
}

func (f *Flow) click(ctx context.Context, locator string) error {
	present, err := f.d.ElementPresent(ctx, locator)
	if err != nil {
		return err
	}
	if !present {
		return &NotFoundError{Locator: locator}
	}
	return f.d.Click(ctx, locator)
}

func (f *Flow) typeInto(ctx context.Context, locator, text string) error {
	present, err := f.d.ElementPresent(ctx, locator)
	if err != nil {
		return err
	}
	if !present {
		return &NotFoundError{Locator: locator}
	}
	return f.d.Type(ctx, locator, text)
}

// LoginToSandbox logs the buyer in. Empty arguments fall back to the
// configured buyer credentials.
func (f *Flow) LoginToSandbox(ctx context.Context, email, password string) error {
	var err error
	if email == "" {
		if email, err = f.creds.Credential(config.BuyerLogin); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = f.creds.Credential(config.BuyerPassword); err != nil {
			return err
		}
	}

	if f.newUI {
		return f.loginNewUI(ctx, email, password)
	}
	return f.loginOldUI(ctx, email, password)
}

func (f *Flow) loginNewUI(ctx context.Context, email, password string) error {
	if err := f.selectLoginFrame(ctx); err != nil {
		return err
	}
	if err := f.typeInto(ctx, "email", email); err != nil {
		return err
	}
	if err := f.typeInto(ctx, "password", password); err != nil {
		return err
	}
	if err := f.click(ctx, LoginButtonNew); err != nil {
		return err
	}
	if err := f.d.SelectTopWindow(ctx); err != nil {
		return err
	}

	firstName, err := f.creds.Credential(config.BuyerFirstName)
	if err != nil {
		return err
	}
	if err := optional(f.WaitForText(ctx, firstName, 3)); err != nil {
		return err
	}
	return optional(f.WaitForElement(ctx, ConfirmButton, 10))
}

func (f *Flow) loginOldUI(ctx context.Context, email, password string) error {
	if err := f.typeInto(ctx, "login_email", email); err != nil {
		return err
	}
	if err := f.typeInto(ctx, "login_password", password); err != nil {
		return err
	}
	if err := f.click(ctx, LoginButtonOld); err != nil {
		return err
	}
	return f.WaitForElement(ctx, ContinueButton, 10)
}

func (f *Flow) selectLoginFrame(ctx context.Context) error {
	if !f.newUI {
		return nil
	}
	if err := optional(f.WaitForElement(ctx, LoginFrameSelector, 5)); err != nil {
		return err
	}
	present, err := f.d.ElementPresent(ctx, LoginFrameSelector)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: PayPal is not giving us the normal page, we miss the iframe...", ErrIncomplete)
	}
	return f.d.Frame(ctx, LoginFrameName)
}

func (f *Flow) SelectShippingMethod(ctx context.Context, label string) error {
	if err := f.WaitForElement(ctx, ShippingMethod, 10); err != nil {
		return err
	}
	if err := f.d.Select(ctx, ShippingMethod, label); err != nil {
		return err
	}
	return f.WaitForElement(ctx, ContinueButton, 10)
}

// SelectExpressCheckout leaves the shop through an express checkout button.
func (f *Flow) SelectExpressCheckout(ctx context.Context, button string) error {
	if button == "" {
		button = ExpressCheckout
	}
	f.UseExpressCheckout()
	if err := f.click(ctx, button); err != nil {
		return err
	}
	return f.WaitForPayPalPage(ctx)
}

// CheckForFailedToOpenPayPalPage catches PayPal refusing the shop's call and
// bouncing back with an error, e.g. for wrong API credentials.
func (f *Flow) CheckForFailedToOpenPayPalPage(ctx context.Context) error {
	for _, text := range []string{"Security header is not valid", "ehlermeldung von PayPal"} {
		present, err := f.d.TextPresent(ctx, text)
		if err != nil {
			return err
		}
		if present {
			return fmt.Errorf("%w: page shows %q", ErrOpenFailed, text)
		}
	}
	return nil
}

func (f *Flow) WaitForPayPalPage(ctx context.Context) error {
	if err := f.CheckForFailedToOpenPayPalPage(ctx); err != nil {
		return err
	}
	if !f.newUI {
		return f.WaitForElement(ctx, LoginButtonOld, 10)
	}

	if err := optional(f.WaitForElement(ctx, UnifiedLogin, 10)); err != nil {
		return err
	}

	// sometimes the old login page shows up instead
	unified, err := f.d.ElementPresent(ctx, UnifiedLogin)
	if err != nil {
		return err
	}
	if !unified {
		old, err := f.d.ElementPresent(ctx, LoginButtonOld)
		if err != nil {
			return err
		}
		if old {
			f.UseExpressCheckout()
			return nil
		}
	}

	if err := f.selectLoginFrame(ctx); err != nil {
		return err
	}
	if err := f.WaitForElement(ctx, LoginButtonNew, 10); err != nil {
		return err
	}
	return f.d.SelectTopWindow(ctx)
}

// ClickContinue confirms the payment on PayPal and waits for the shop.
func (f *Flow) ClickContinue(ctx context.Context) error {
	var err error
	if f.newUI {
		err = f.continueNewUI(ctx)
	} else {
		err = f.continueOldUI(ctx)
	}
	if err != nil {
		return err
	}
	return optional(f.WaitForElement(ctx, ShopBreadCrumb, 10))
}

// The confirm button is hidden while PayPal runs the shop callback and
// comes back once the callback answered.
func (f *Flow) continueNewUI(ctx context.Context) error {
	if err := optional(f.WaitForElement(ctx, ConfirmButton, 10)); err != nil {
		return err
	}
	if err := f.WaitForEditable(ctx, ConfirmButtonID, 10); err != nil {
		return err
	}
	return f.click(ctx, ConfirmButtonID)
}

func (f *Flow) continueOldUI(ctx context.Context) error {
	if err := f.WaitForElement(ctx, ContinueInput, 10); err != nil {
		return err
	}
	if err := f.WaitForElement(ctx, ContinueAboveInput, 3); err != nil {
		return err
	}
	if err := f.WaitForEditable(ctx, ContinueButton, 10); err != nil {
		return err
	}

	present, err := f.d.ElementPresent(ctx, ContinueAboveFold)
	if err != nil {
		return err
	}
	if present {
		editable, err := f.d.IsEditable(ctx, ContinueAboveFold)
		if err != nil {
			return err
		}
		if editable {
			return f.click(ctx, ContinueAboveFold)
		}
	}
	return f.click(ctx, ContinueButton)
}

// IsStillLoggedIn reports whether PayPal kept the buyer session from an
// earlier test, in which case the login form is skipped.
func (f *Flow) IsStillLoggedIn(ctx context.Context) (bool, error) {
	if err := f.d.SelectTopWindow(ctx); err != nil {
		return false, err
	}
	firstName, err := f.creds.Credential(config.BuyerFirstName)
	if err != nil {
		return false, err
	}
	if err := optional(f.WaitForText(ctx, firstName, 2)); err != nil {
		return false, err
	}

	named, err := f.d.TextPresent(ctx, firstName)
	if err != nil || !named {
		return false, err
	}
	return f.d.ElementPresent(ctx, ConfirmButton)
}

// PayWithPayPal finishes the PayPal part of a checkout.
func (f *Flow) PayWithPayPal(ctx context.Context, usBuyer bool) error {
	loggedIn, err := f.IsStillLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		name := config.BuyerLogin
		if usBuyer {
			name = config.BuyerUSLogin
		}
		email, err := f.creds.Credential(name)
		if err != nil {
			return err
		}
		if err := f.LoginToSandbox(ctx, email, ""); err != nil {
			return err
		}
	}
	return f.ClickContinue(ctx)
}

func (f *Flow) PayWithExpressCheckout(ctx context.Context, button string, usBuyer bool) error {
	if button == "" {
		button = ExpressCheckout
	}
	f.UseExpressCheckout()
	if err := f.click(ctx, button); err != nil {
		return err
	}
	return f.PayWithPayPal(ctx, usBuyer)
}

func (f *Flow) WaitForLoggedInToSandbox(ctx context.Context) error {
	if err := f.WaitForElement(ctx, ContinueButton, 10); err != nil {
		return err
	}
	return f.WaitForElement(ctx, DisplayShippingTotal, 10)
}
