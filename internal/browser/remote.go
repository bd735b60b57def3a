package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Remote attaches to a page of an already running Chrome over the DevTools
// protocol. It is read-only: it answers the page questions triage asks.
type Remote struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// NewRemote connects to devtoolsURL (ws://host:9222/...) and attaches to
// the first page target. A new tab is opened when the browser has none.
func NewRemote(devtoolsURL string) (*Remote, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), devtoolsURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("list targets: %w", err)
	}

	ctx, cancel := browserCtx, context.CancelFunc(func() {})
	for _, t := range targets {
		if t.Type == "page" {
			ctx, cancel = chromedp.NewContext(browserCtx, chromedp.WithTargetID(t.TargetID))
			break
		}
	}

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("attach: %w", err)
	}

	return &Remote{
		Ctx: ctx,
		cancel: func() {
			cancel()
			browserCancel()
			allocCancel()
		},
	}, nil
}

func (r *Remote) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Remote) scoped(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if r == nil || r.Ctx == nil {
		return nil, nil, fmt.Errorf("devtools session is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		c, cancel := context.WithDeadline(r.Ctx, deadline)
		return c, cancel, nil
	}
	c, cancel := context.WithCancel(r.Ctx)
	return c, cancel, nil
}

// SelectTopWindow only verifies the session: queries always run against the
// top document.
func (r *Remote) SelectTopWindow(ctx context.Context) error {
	runCtx, cancel, err := r.scoped(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var ok bool
	return chromedp.Run(runCtx, chromedp.Evaluate(`window === window.top`, &ok))
}

func (r *Remote) TextPresent(ctx context.Context, text string) (bool, error) {
	runCtx, cancel, err := r.scoped(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	arg, err := json.Marshal(text)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`!!document.body && document.body.innerText.includes(%s)`, arg)

	var found bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("js evaluation failed: %w", err)
	}
	return found, nil
}

func (r *Remote) ElementPresent(ctx context.Context, locator string) (bool, error) {
	runCtx, cancel, err := r.scoped(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	sel, by := ParseLocator(locator).CDP()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("query %s: %w", locator, err)
	}
	return len(nodes) > 0, nil
}

func (r *Remote) HTML(ctx context.Context) (string, error) {
	runCtx, cancel, err := r.scoped(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page source: %w", err)
	}
	return html, nil
}
