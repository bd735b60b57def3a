package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in    string
		kind  LocatorKind
		value string
	}{
		{"id=continue", KindID, "continue"},
		{"name=login_email", KindName, "login_email"},
		{"css=div.basket > a", KindCSS, "div.basket > a"},
		{"xpath=//a", KindXPath, "//a"},
		{"//input[@id='confirmButtonTop']", KindXPath, "//input[@id='confirmButtonTop']"},
		{"(//a)[2]", KindXPath, "(//a)[2]"},
		{"link=1. Cart", KindLink, "1. Cart"},
		{"paypalExpressCheckoutButton", KindIdentifier, "paypalExpressCheckoutButton"},
		{"label=Belgium", KindIdentifier, "label=Belgium"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l := ParseLocator(tt.in)
			assert.Equal(t, tt.kind, l.Kind)
			assert.Equal(t, tt.value, l.Value)
			assert.Equal(t, tt.in, l.String())
		})
	}
}

func TestLocator_Playwright(t *testing.T) {
	assert.Equal(t, `[id="continue"]`, ParseLocator("id=continue").Playwright())
	assert.Equal(t, `[name="email"]`, ParseLocator("name=email").Playwright())
	assert.Equal(t, `xpath=//input[@id='x']`, ParseLocator("//input[@id='x']").Playwright())
	assert.Equal(t, `css=#basket`, ParseLocator("css=#basket").Playwright())
	assert.Equal(t, `xpath=//a[normalize-space(.)='1. Cart']`, ParseLocator("link=1. Cart").Playwright())
	assert.Equal(t, `[id="btn"], [name="btn"]`, ParseLocator("btn").Playwright())
}

func TestLocator_CDP(t *testing.T) {
	sel, _ := ParseLocator("id=continue").CDP()
	assert.Equal(t, `[id="continue"]`, sel)

	sel, _ = ParseLocator("paypalExpressCheckoutButton").CDP()
	assert.Equal(t, `[id="paypalExpressCheckoutButton"],[name="paypalExpressCheckoutButton"]`, sel)

	sel, by := ParseLocator("//a").CDP()
	assert.Equal(t, "//a", sel)
	assert.NotNil(t, by)
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'plain'`, xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('a"b', "'", 'c')`, xpathLiteral(`a"b'c`))
}
