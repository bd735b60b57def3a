package triage

import (
	"errors"
	"fmt"
	"strings"
)

// Predicate selects which page query a PageCheck runs.
type Predicate string

const (
	PredicateText    Predicate = "text_present"
	PredicateElement Predicate = "element_present"
)

// ParsePredicate accepts the canonical names and the Selenium method names
// (isTextPresent / isElementPresent) older rule files were written with.
func ParsePredicate(s string) (Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text_present", "text", "istextpresent":
		return PredicateText, nil
	case "element_present", "element", "iselementpresent":
		return PredicateElement, nil
	default:
		return "", fmt.Errorf("unknown predicate %q", s)
	}
}

type PageCheck struct {
	Predicate Predicate `yaml:"predicate"`
	Argument  string    `yaml:"argument"`
}

func TextCheck(text string) PageCheck {
	return PageCheck{Predicate: PredicateText, Argument: text}
}

func ElementCheck(locator string) PageCheck {
	return PageCheck{Predicate: PredicateElement, Argument: locator}
}

func (c PageCheck) String() string {
	return fmt.Sprintf("%s(%q)", c.Predicate, c.Argument)
}

// SymptomGroup is satisfied when every one of its checks holds on the current page.
type SymptomGroup struct {
	Name   string      `yaml:"name"`
	Checks []PageCheck `yaml:"checks"`
}

// Rules are the static tables a Classifier works from: failure message
// fragments known to come from sandbox instability and the page symptoms
// that confirm it.
type Rules struct {
	Fragments []string       `yaml:"fragments"`
	Groups    []SymptomGroup `yaml:"groups"`
}

var ErrInvalidRules = errors.New("invalid triage rules")

func (r Rules) Validate() error {
	var errs []error
	for i, f := range r.Fragments {
		if f == "" {
			errs = append(errs, fmt.Errorf("fragment %d is empty", i))
		}
	}
	seen := make(map[string]bool, len(r.Groups))
	for i, g := range r.Groups {
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("group %d has no name", i))
		} else if seen[g.Name] {
			errs = append(errs, fmt.Errorf("group %q is defined twice", g.Name))
		}
		seen[g.Name] = true

		if len(g.Checks) == 0 {
			errs = append(errs, fmt.Errorf("group %q has no checks", g.Name))
		}
		for _, c := range g.Checks {
			if c.Predicate != PredicateText && c.Predicate != PredicateElement {
				errs = append(errs, fmt.Errorf("group %q: unknown predicate %q", g.Name, c.Predicate))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRules, errors.Join(errs...))
	}
	return nil
}

func (r Rules) clone() Rules {
	out := Rules{
		Fragments: append([]string(nil), r.Fragments...),
		Groups:    make([]SymptomGroup, len(r.Groups)),
	}
	for i, g := range r.Groups {
		out.Groups[i] = SymptomGroup{
			Name:   g.Name,
			Checks: append([]PageCheck(nil), g.Checks...),
		}
	}
	return out
}

const expressCheckoutButton = "paypalExpressCheckoutButton"

// DefaultRules returns a fresh copy of the tables observed against the PayPal sandbox.
func DefaultRules() Rules {
	return Rules{
		Fragments: []string{
			"Element 'login_email' was not found",
			"Element 'id=submitLogin' was not found!",
			"Element 'id=paypalExpressCheckoutDetailsButton' was not found!",
			"Timeout waiting for 'id=continue'",
			"Timeout waiting for 'id=submitLogin'",
			"Timeout waiting for 'Bestellen ohne Registrierung'",
			"Timeout waiting for 'cancel_return'",
			"Timeout waiting for '2 x Test product 1'",
		},
		Groups: []SymptomGroup{
			{Name: "internal_error", Checks: []PageCheck{
				TextCheck("internal"),
				TextCheck("error"),
				TextCheck("webmaster@paypal.com"),
			}},
			{Name: "dispatch_error_en", Checks: []PageCheck{
				TextCheck("your last action could not be completed"),
				TextCheck("Dispatch Error"),
				TextCheck("PayPal"),
			}},
			{Name: "dispatch_error_de", Checks: []PageCheck{
				TextCheck("letzte Aktion konnte leider nicht abgeschlossen werden"),
				TextCheck("Dispatch Error"),
				TextCheck("PayPal"),
			}},
			{Name: "internal_error_sandbox", Checks: []PageCheck{
				TextCheck("internal"),
				TextCheck("error"),
				TextCheck("sandbox.paypal.com"),
			}},
			{Name: "redirect_to_PP_failed_de", Checks: []PageCheck{
				TextCheck("Warenkorb"),
				ElementCheck(expressCheckoutButton),
			}},
			{Name: "redirect_to_PP_failed_en", Checks: []PageCheck{
				TextCheck("Cart"),
				ElementCheck(expressCheckoutButton),
			}},
			{Name: "not_logged_in_redirect_to_PP_failed_de", Checks: []PageCheck{
				TextCheck("Bestellen ohne Registrierung"),
				ElementCheck(expressCheckoutButton),
			}},
		},
	}
}
