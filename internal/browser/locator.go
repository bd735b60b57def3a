package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
)

var ErrUnsupportedLocator = errors.New("unsupported locator")

type LocatorKind int

const (
	// KindIdentifier matches on id first, then name.
	KindIdentifier LocatorKind = iota
	KindID
	KindName
	KindCSS
	KindXPath
	KindLink
)

func (k LocatorKind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	case KindCSS:
		return "css"
	case KindXPath:
		return "xpath"
	case KindLink:
		return "link"
	default:
		return "identifier"
	}
}

// Locator is a Selenium style element address: "id=continue",
// "//input[@id='confirmButtonTop']", "link=1. Cart" or a bare identifier.
type Locator struct {
	Kind  LocatorKind
	Value string
	raw   string
}

func ParseLocator(s string) Locator {
	raw := s
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(//") {
		return Locator{Kind: KindXPath, Value: s, raw: raw}
	}
	if prefix, value, ok := strings.Cut(s, "="); ok {
		switch prefix {
		case "id":
			return Locator{Kind: KindID, Value: value, raw: raw}
		case "name":
			return Locator{Kind: KindName, Value: value, raw: raw}
		case "css":
			return Locator{Kind: KindCSS, Value: value, raw: raw}
		case "xpath":
			return Locator{Kind: KindXPath, Value: value, raw: raw}
		case "link":
			return Locator{Kind: KindLink, Value: value, raw: raw}
		}
	}
	return Locator{Kind: KindIdentifier, Value: s, raw: raw}
}

func (l Locator) String() string {
	if l.raw != "" {
		return l.raw
	}
	return l.Kind.String() + "=" + l.Value
}

// Playwright renders the locator as a playwright selector.
func (l Locator) Playwright() string {
	switch l.Kind {
	case KindID:
		return attrSelector("id", l.Value)
	case KindName:
		return attrSelector("name", l.Value)
	case KindCSS:
		return "css=" + l.Value
	case KindXPath:
		return "xpath=" + l.Value
	case KindLink:
		return "xpath=" + linkXPath(l.Value)
	default:
		return attrSelector("id", l.Value) + ", " + attrSelector("name", l.Value)
	}
}

// CDP renders the locator as a chromedp selector and query option.
func (l Locator) CDP() (string, chromedp.QueryOption) {
	switch l.Kind {
	case KindID:
		return attrSelector("id", l.Value), chromedp.ByQuery
	case KindName:
		return attrSelector("name", l.Value), chromedp.ByQuery
	case KindCSS:
		return l.Value, chromedp.ByQuery
	case KindXPath:
		return l.Value, chromedp.BySearch
	case KindLink:
		return linkXPath(l.Value), chromedp.BySearch
	default:
		return attrSelector("id", l.Value) + "," + attrSelector("name", l.Value), chromedp.ByQuery
	}
}

func attrSelector(attr, value string) string {
	return fmt.Sprintf("[%s=%s]", attr, strconv.Quote(value))
}

func linkXPath(text string) string {
	return fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(text))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}
