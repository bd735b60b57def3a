// Package acceptance ties the classifier into Go tests: a failing sandbox
// step either skips the test with an explanation or fails it as usual.
package acceptance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/browser"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/debuglog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/report"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/shoplog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

// retryMarker is how a timed out wait shows up in a retried test's message.
const retryMarker = "  timeout"

// TimedOut reports whether a failure message comes from a timed out wait.
// The match ignores case.
func TimedOut(message string) bool {
	return strings.Contains(strings.ToLower(message), retryMarker)
}

// Harness is shared by the tests of one run. Every field except Classifier
// may be nil.
type Harness struct {
	Classifier *triage.Classifier
	Log        *debuglog.TestLog
	Report     *report.Report
	Shop       *shoplog.Store
	Logger     *zap.Logger

	Now func() time.Time
}

func (h *Harness) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Harness) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Triage returns nil for nil, a *triage.SkipError for sandbox issues and the
// failure (possibly joined with a page query error) otherwise.
func (h *Harness) Triage(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return h.Classifier.Resolve(ctx, err)
}

// Check ends the test when err is set: skipped when the sandbox is to blame,
// failed otherwise.
func (h *Harness) Check(tb testing.TB, err error) {
	tb.Helper()
	if err == nil {
		return
	}

	resolved := h.Triage(tb.Context(), err)

	var skip *triage.SkipError
	if errors.As(resolved, &skip) {
		h.Log.Write(skip.Explanation)
		h.logger().Info("test skipped",
			zap.String("test", tb.Name()),
			zap.String("explanation", skip.Explanation))
		h.record(report.Verdict{
			Test:        tb.Name(),
			Outcome:     report.OutcomeSkipped,
			Message:     err.Error(),
			Explanation: skip.Explanation,
		})
		tb.Skip(skip.Explanation)
		return
	}

	h.Log.Write(fmt.Sprintf("Check %T %s", err, resolved.Error()))
	if errors.Is(resolved, triage.ErrPageQuery) {
		h.logger().Warn("could not inspect sandbox page", zap.String("test", tb.Name()), zap.Error(resolved))
	}
	h.record(report.Verdict{
		Test:    tb.Name(),
		Outcome: report.OutcomeFailed,
		Message: resolved.Error(),
	})
	tb.Fatal(resolved)
}

func (h *Harness) record(v report.Verdict) {
	if h.Report != nil {
		h.Report.Add(v)
	}
}

// BeforeRetry archives the page a timed out step was stuck on and rotates
// the payment log so the retry starts clean. It returns the rotated log path,
// empty when nothing was done.
func (h *Harness) BeforeRetry(message string, snap *browser.PageSnapshot) (string, error) {
	if h.Shop == nil || !TimedOut(message) {
		return "", nil
	}

	if snap != nil {
		if err := h.Shop.AppendPageSource(snap.URL, snap.HTML); err != nil {
			return "", err
		}
	}

	rotated, err := h.Shop.Rotate(h.now())
	if err != nil {
		return "", err
	}
	if rotated != "" && snap != nil && len(snap.Screenshot) > 0 {
		if err := os.WriteFile(rotated+".jpg", snap.Screenshot, 0o644); err != nil {
			h.logger().Warn("save retry screenshot", zap.Error(err))
		}
	}

	h.Log.Write("retry after timeout, payment log moved to " + rotated)
	h.logger().Debug("payment log rotated", zap.String("path", rotated))
	return rotated, nil
}
