package acceptance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/browser"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/checkout"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/debuglog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/report"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/shoplog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

const sandboxErrorPage = `<html><body>
<h1>Internal Server Error</h1>
<p>An internal error occurred. Contact webmaster@paypal.com</p>
</body></html>`

const shopPage = `<html><body><h1>Thank you for your order</h1></body></html>`

// fakeTB records the outcome instead of stopping the goroutine.
type fakeTB struct {
	testing.TB
	ctx     context.Context
	skipped bool
	failed  bool
	msg     string
}

func newFakeTB() *fakeTB { return &fakeTB{ctx: context.Background()} }

func (f *fakeTB) Helper()                  {}
func (f *fakeTB) Name() string             { return "TestCheckout" }
func (f *fakeTB) Context() context.Context { return f.ctx }

func (f *fakeTB) Skip(args ...any) {
	f.skipped = true
	f.msg = fmt.Sprint(args...)
}

func (f *fakeTB) Fatal(args ...any) {
	f.failed = true
	f.msg = fmt.Sprint(args...)
}

type brokenPage struct{}

func (brokenPage) SelectTopWindow(context.Context) error { return errors.New("no such window") }
func (brokenPage) TextPresent(context.Context, string) (bool, error) {
	return false, nil
}
func (brokenPage) ElementPresent(context.Context, string) (bool, error) {
	return false, nil
}

func newHarness(t *testing.T, page triage.Page) (*Harness, *observer.ObservedLogs) {
	t.Helper()
	dir := t.TempDir()

	log, err := debuglog.OpenTestLog(dir, "oepaypal_acceptance_log.txt")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	classifier, err := triage.New(page, triage.DefaultRules())
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	return &Harness{
		Classifier: classifier,
		Log:        log,
		Report:     report.New(t.Name(), nil),
		Shop:       shoplog.NewStore(dir + "/oepaypal.log"),
		Logger:     zap.New(core),
	}, logs
}

func staticPage(t *testing.T, src string) *browser.Static {
	t.Helper()
	page, err := browser.ParseStatic(strings.NewReader(src))
	require.NoError(t, err)
	return page
}

func readLog(t *testing.T, h *Harness) string {
	t.Helper()
	data, err := os.ReadFile(h.Log.Path())
	require.NoError(t, err)
	return string(data)
}

func TestCheck_Nil(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, shopPage))
	tb := newFakeTB()

	h.Check(tb, nil)
	assert.False(t, tb.skipped)
	assert.False(t, tb.failed)
	assert.Empty(t, h.Report.Verdicts())
}

func TestCheck_SandboxIssueSkips(t *testing.T) {
	h, logs := newHarness(t, staticPage(t, sandboxErrorPage))
	tb := newFakeTB()

	h.Check(tb, &checkout.TimeoutError{What: "id=continue"})

	require.True(t, tb.skipped)
	assert.False(t, tb.failed)
	want := "Timeout waiting for 'id=continue'" + triage.SkipReason + "internal_error"
	assert.Equal(t, want, tb.msg)
	assert.Contains(t, readLog(t, h), "] "+want+"\n")
	assert.Equal(t, 1, logs.FilterMessage("test skipped").Len())

	verdicts := h.Report.Verdicts()
	require.Len(t, verdicts, 1)
	assert.Equal(t, report.OutcomeSkipped, verdicts[0].Outcome)
	assert.Equal(t, "TestCheckout", verdicts[0].Test)
}

func TestCheck_ShopDefectFails(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, shopPage))
	tb := newFakeTB()

	h.Check(tb, &checkout.TimeoutError{What: "id=continue"})

	require.True(t, tb.failed)
	assert.False(t, tb.skipped)
	assert.Equal(t, "Timeout waiting for 'id=continue'", tb.msg)
	assert.Contains(t, readLog(t, h), "] Check *checkout.TimeoutError Timeout waiting for 'id=continue'\n")

	verdicts := h.Report.Verdicts()
	require.Len(t, verdicts, 1)
	assert.Equal(t, report.OutcomeFailed, verdicts[0].Outcome)
}

func TestCheck_UnknownMessageFails(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, sandboxErrorPage))
	tb := newFakeTB()

	h.Check(tb, errors.New("order total is 1.99, want 0.99"))
	assert.True(t, tb.failed)
}

func TestCheck_PageQueryErrorFails(t *testing.T) {
	h, logs := newHarness(t, brokenPage{})
	tb := newFakeTB()

	h.Check(tb, &checkout.NotFoundError{Locator: "id=submitLogin"})

	require.True(t, tb.failed)
	assert.Contains(t, tb.msg, "Element 'id=submitLogin' was not found!")
	assert.Contains(t, tb.msg, "no such window")
	assert.Equal(t, 1, logs.FilterMessage("could not inspect sandbox page").Len())
}

func TestTriage(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, sandboxErrorPage))

	assert.NoError(t, h.Triage(context.Background(), nil))

	err := h.Triage(context.Background(), &checkout.TimeoutError{What: "cancel_return"})
	require.True(t, triage.IsSkip(err))
	assert.ErrorIs(t, err, checkout.ErrTimeout)
}

func TestBeforeRetry(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, shopPage))
	h.Now = func() time.Time { return time.Date(2017, 3, 1, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, h.Shop.Append(shoplog.Entry{Type: shoplog.TypeRequest, SID: "1"}))

	snap := &browser.PageSnapshot{
		URL:        "https://www.sandbox.paypal.com/checkoutnow",
		HTML:       sandboxErrorPage,
		Screenshot: []byte{0xff, 0xd8},
	}

	t.Run("other failures keep the log", func(t *testing.T) {
		rotated, err := h.BeforeRetry("Failed asserting that false is true.", snap)
		require.NoError(t, err)
		assert.Empty(t, rotated)
		assert.FileExists(t, h.Shop.Path)
	})

	t.Run("timeout archives and rotates", func(t *testing.T) {
		rotated, err := h.BeforeRetry("Exception:  Timeout waiting for 'id=continue'", snap)
		require.NoError(t, err)
		require.NotEmpty(t, rotated)
		assert.NoFileExists(t, h.Shop.Path)
		assert.FileExists(t, rotated+".jpg")

		entries, err := shoplog.NewStore(rotated).Entries()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, shoplog.TypeSource, entries[1].Type)
		assert.Equal(t, snap.URL, entries[1].Data["url"])
	})
}

func TestBeforeRetry_NoStore(t *testing.T) {
	classifier, err := triage.New(brokenPage{}, triage.DefaultRules())
	require.NoError(t, err)
	h := &Harness{Classifier: classifier}
	rotated, err := h.BeforeRetry("  Timeout waiting for 'id=continue'", nil)
	require.NoError(t, err)
	assert.Empty(t, rotated)
}

func TestTimedOut(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Exception:  Timeout waiting for 'id=continue'", true},
		{"exception:  TIMEOUT waiting for 'id=continue'", true},
		{"step:  timeout reached", true},
		{"Timeout waiting for 'id=continue'", false},
		{"Failed asserting that false is true.", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, TimedOut(tt.message))
		})
	}
}

func TestBeforeRetry_IgnoresCase(t *testing.T) {
	h, _ := newHarness(t, staticPage(t, shopPage))
	require.NoError(t, h.Shop.Append(shoplog.Entry{Type: shoplog.TypeRequest, SID: "1"}))

	rotated, err := h.BeforeRetry("Exception:  TIMEOUT waiting for 'id=continue'", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated)
	assert.FileExists(t, rotated)
}
