package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	LoadStateLoad             = "load"
	LoadStateDomcontentloaded = "domcontentloaded"
	LoadStateNetworkidle      = "networkidle"
)

type Config struct {
	Headless    bool
	UserDataDir string
	Timeout     time.Duration
	// Install downloads the playwright driver and browsers before starting.
	Install bool
}

func DefaultConfig() Config {
	return Config{
		Headless:    true,
		UserDataDir: ".playwright_data",
		Timeout:     60 * time.Second,
	}
}

// Manager owns a playwright browser session and tracks which frame the
// test currently works in.
type Manager struct {
	pw      *playwright.Playwright
	Context playwright.BrowserContext
	Page    playwright.Page

	frame playwright.Frame
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Install {
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("install pw failed: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	userDataDir, err := filepath.Abs(cfg.UserDataDir)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("user data dir: %w", err)
	}

	browserCtx, err := pw.Chromium.LaunchPersistentContext(
		userDataDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(cfg.Headless),
			Viewport: &playwright.Size{Width: 1280, Height: 1024},
			Args: []string{
				"--disable-blink-features=AutomationControlled",
			},
		},
	)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	var page playwright.Page
	pages := browserCtx.Pages()
	if len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = browserCtx.NewPage()
		if err != nil {
			_ = browserCtx.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(timeout.Milliseconds()))

	return &Manager{
		pw:      pw,
		Context: browserCtx,
		Page:    page,
		frame:   page.MainFrame(),
	}, nil
}

func (m *Manager) Close() {
	if m.Context != nil {
		_ = m.Context.Close()
	}
	if m.pw != nil {
		_ = m.pw.Stop()
	}
}

func (m *Manager) ready(ctx context.Context) error {
	if m == nil || m.Page == nil {
		return fmt.Errorf("page is not initialized")
	}
	if m.Page.IsClosed() {
		return fmt.Errorf("page is closed")
	}
	return ctx.Err()
}

func (m *Manager) Goto(ctx context.Context, url string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	if _, err := m.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	m.frame = m.Page.MainFrame()
	return nil
}

// WaitForLoad blocks until the page reaches the given load state.
func (m *Manager) WaitForLoad(ctx context.Context, state string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	ls := playwright.LoadState(state)
	return m.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: &ls})
}

func (m *Manager) SelectTopWindow(ctx context.Context) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	m.frame = m.Page.MainFrame()
	return nil
}

// Frame moves focus into the child frame with the given name.
func (m *Manager) Frame(ctx context.Context, name string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	f := m.Page.Frame(playwright.PageFrameOptions{Name: playwright.String(name)})
	if f == nil {
		return fmt.Errorf("frame %q not found", name)
	}
	m.frame = f
	return nil
}

func (m *Manager) locator(locator string) playwright.Locator {
	return m.frame.Locator(ParseLocator(locator).Playwright()).First()
}

func (m *Manager) TextPresent(ctx context.Context, text string) (bool, error) {
	if err := m.ready(ctx); err != nil {
		return false, err
	}
	res, err := m.frame.Evaluate(`(t) => !!document.body && document.body.innerText.includes(t)`, text)
	if err != nil {
		return false, fmt.Errorf("js evaluation failed: %w", err)
	}
	ok, isBool := res.(bool)
	if !isBool {
		return false, fmt.Errorf("expected bool from js, got %T", res)
	}
	return ok, nil
}

func (m *Manager) ElementPresent(ctx context.Context, locator string) (bool, error) {
	if err := m.ready(ctx); err != nil {
		return false, err
	}
	n, err := m.frame.Locator(ParseLocator(locator).Playwright()).Count()
	if err != nil {
		return false, fmt.Errorf("count %s: %w", locator, err)
	}
	return n > 0, nil
}

func (m *Manager) IsEditable(ctx context.Context, locator string) (bool, error) {
	present, err := m.ElementPresent(ctx, locator)
	if err != nil || !present {
		return false, err
	}
	return m.locator(locator).IsEditable()
}

func (m *Manager) Click(ctx context.Context, locator string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	if err := m.locator(locator).Click(); err != nil {
		return fmt.Errorf("click %s: %w", locator, err)
	}
	return nil
}

func (m *Manager) Type(ctx context.Context, locator, text string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	if err := m.locator(locator).Fill(text); err != nil {
		return fmt.Errorf("type into %s: %w", locator, err)
	}
	return nil
}

func (m *Manager) Select(ctx context.Context, locator, label string) error {
	if err := m.ready(ctx); err != nil {
		return err
	}
	if _, err := m.locator(locator).SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{label},
	}); err != nil {
		return fmt.Errorf("select %q in %s: %w", label, locator, err)
	}
	return nil
}

// Text returns the rendered text of the first element matching locator.
func (m *Manager) Text(ctx context.Context, locator string) (string, error) {
	if err := m.ready(ctx); err != nil {
		return "", err
	}
	text, err := m.locator(locator).InnerText()
	if err != nil {
		return "", fmt.Errorf("text of %s: %w", locator, err)
	}
	return text, nil
}

func (m *Manager) IsChecked(ctx context.Context, locator string) (bool, error) {
	present, err := m.ElementPresent(ctx, locator)
	if err != nil || !present {
		return false, err
	}
	return m.locator(locator).IsChecked()
}

func (m *Manager) URL() string {
	if m == nil || m.Page == nil {
		return ""
	}
	return m.Page.URL()
}
