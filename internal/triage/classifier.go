// Package triage decides whether an acceptance test failure was caused by the
// PayPal sandbox misbehaving rather than by the shop.
package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Page is the read-only view of the browser the classifier needs.
// SelectTopWindow is called before any check is evaluated.
type Page interface {
	SelectTopWindow(ctx context.Context) error
	TextPresent(ctx context.Context, text string) (bool, error)
	ElementPresent(ctx context.Context, locator string) (bool, error)
}

// SkipReason joins the matched fragment and the symptom group in an explanation.
const SkipReason = " - Skipped automatically due to external issue with PayPal sandbox: "

// ErrPageQuery marks failures of the page itself (no session, detached frame).
// They are never turned into skips.
var ErrPageQuery = errors.New("page query failed")

// Classifier matches failure messages and page symptoms against a fixed set
// of rules.
type Classifier struct {
	page  Page
	rules Rules
}

// New validates and copies rules, so later changes by the caller do not leak
// into the classifier. A group without checks would match every page and is
// rejected along with the other invalid tables.
func New(page Page, rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{page: page, rules: rules.clone()}, nil
}

// Rules returns a copy of the tables in use.
func (c *Classifier) Rules() Rules {
	return c.rules.clone()
}

// Classify returns an explanation when message contains a known fragment and
// the page shows one of the symptom groups. When several fragments match the
// last one wins.
func (c *Classifier) Classify(ctx context.Context, message string) (string, bool, error) {
	var (
		explanation string
		group       string
		identified  bool
		evaluated   bool
	)

	for _, fragment := range c.rules.Fragments {
		if !strings.Contains(message, fragment) {
			continue
		}
		// page state does not change between fragments, identify once
		if !evaluated {
			var err error
			group, identified, err = c.Identify(ctx)
			if err != nil {
				return "", false, err
			}
			evaluated = true
		}
		if identified {
			explanation = fragment + SkipReason + group
		}
	}

	return explanation, explanation != "", nil
}

// Identify returns the name of the last symptom group whose checks all hold.
func (c *Classifier) Identify(ctx context.Context) (string, bool, error) {
	if err := c.page.SelectTopWindow(ctx); err != nil {
		return "", false, fmt.Errorf("%w: select top window: %w", ErrPageQuery, err)
	}

	var identified string
	for _, g := range c.rules.Groups {
		ok, err := c.satisfied(ctx, g)
		if err != nil {
			return "", false, err
		}
		if ok {
			identified = g.Name
		}
	}

	return identified, identified != "", nil
}

func (c *Classifier) satisfied(ctx context.Context, g SymptomGroup) (bool, error) {
	for _, check := range g.Checks {
		ok, err := c.evaluate(ctx, check)
		if err != nil {
			return false, fmt.Errorf("%w: group %s: %s: %w", ErrPageQuery, g.Name, check, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *Classifier) evaluate(ctx context.Context, check PageCheck) (bool, error) {
	switch check.Predicate {
	case PredicateText:
		return c.page.TextPresent(ctx, check.Argument)
	case PredicateElement:
		return c.page.ElementPresent(ctx, check.Argument)
	default:
		return false, fmt.Errorf("unknown predicate %q", check.Predicate)
	}
}

// Resolve maps a test failure to its outcome: a *SkipError when the sandbox is
// to blame, the failure itself otherwise. Page query errors are joined with
// the failure so neither gets lost.
func (c *Classifier) Resolve(ctx context.Context, failure error) error {
	if failure == nil {
		return nil
	}
	explanation, ok, err := c.Classify(ctx, failure.Error())
	if err != nil {
		return errors.Join(failure, err)
	}
	if !ok {
		return failure
	}
	return &SkipError{Explanation: explanation, Cause: failure}
}

// SkipError reports a failure classified as a sandbox issue.
type SkipError struct {
	Explanation string
	Cause       error
}

func (e *SkipError) Error() string {
	return e.Explanation
}

func (e *SkipError) Unwrap() error {
	return e.Cause
}

// IsSkip reports whether err carries a *SkipError.
func IsSkip(err error) bool {
	var skip *SkipError
	return errors.As(err, &skip)
}
