// Package report collects the triage verdicts of a test run and prints them
// as one block at the end.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type Verdict struct {
	Test        string
	Outcome     Outcome
	Message     string
	Explanation string
}

func (v Verdict) String() string {
	detail := v.Message
	if v.Outcome == OutcomeSkipped {
		detail = v.Explanation
	}
	return fmt.Sprintf("%s | %s | %s", strings.ToUpper(string(v.Outcome)), v.Test, firstLine(detail))
}

// Summarizer turns a finished run into a short human readable summary.
type Summarizer interface {
	Summarize(ctx context.Context, in SummaryInput) (string, error)
}

type SummaryInput struct {
	Run      string
	Duration string
	Verdicts []string
}

type Report struct {
	run        string
	start      time.Time
	summarizer Summarizer

	mu       sync.Mutex
	verdicts []Verdict
}

// New starts a report. summarizer may be nil.
func New(run string, summarizer Summarizer) *Report {
	return &Report{
		run:        run,
		start:      time.Now(),
		summarizer: summarizer,
	}
}

func (r *Report) Add(v Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
}

func (r *Report) Verdicts() []Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Verdict(nil), r.verdicts...)
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, v := range r.verdicts {
		if v.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) Print(ctx context.Context, w io.Writer) error {
	r.mu.Lock()
	verdicts := append([]Verdict(nil), r.verdicts...)
	skipped, failed := r.count(OutcomeSkipped), r.count(OutcomeFailed)
	r.mu.Unlock()

	duration := time.Since(r.start).Truncate(time.Millisecond)

	var b strings.Builder
	b.WriteString("\n===== TRIAGE REPORT =====\n")
	fmt.Fprintf(&b, "Run: %s\n", r.run)
	fmt.Fprintf(&b, "Duration: %s\n", duration)
	fmt.Fprintf(&b, "Skipped: %d  Failed: %d\n\n", skipped, failed)

	b.WriteString("--- VERDICTS ---\n")
	lines := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		lines = append(lines, v.String())
		b.WriteString(v.String() + "\n")
	}
	if len(verdicts) == 0 {
		b.WriteString("(none)\n")
	}

	if r.summarizer != nil {
		b.WriteString("\n--- LLM SUMMARY ---\n")
		summary, err := r.summarizer.Summarize(ctx, SummaryInput{
			Run:      r.run,
			Duration: duration.String(),
			Verdicts: lines,
		})
		if err != nil {
			fmt.Fprintf(&b, "(failed to generate summary: %v)\n", err)
		} else {
			b.WriteString(strings.TrimSpace(summary) + "\n")
		}
	}

	b.WriteString("===== END OF REPORT =====\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
