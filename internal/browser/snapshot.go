package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// PageSnapshot is what gets archived when a sandbox step times out.
type PageSnapshot struct {
	URL        string
	Title      string
	HTML       string
	Screenshot []byte
}

func (m *Manager) Snapshot(ctx context.Context) (*PageSnapshot, error) {
	if err := m.ready(ctx); err != nil {
		return nil, err
	}

	html, err := m.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("page source: %w", err)
	}

	title, _ := m.Page.Title()

	// a missing screenshot should not hide the page source
	var shot []byte
	if buf, errShot := m.Page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(70),
	}); errShot == nil {
		shot = buf
	}

	return &PageSnapshot{
		URL:        m.Page.URL(),
		Title:      title,
		HTML:       html,
		Screenshot: shot,
	}, nil
}
