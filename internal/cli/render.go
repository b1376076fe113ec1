package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/exstem-cbt/internal/model"
)

const progressWidth = 30

// FormatClock renders a duration as mm:ss, clamping negatives to zero.
func FormatClock(d time.Duration) string {
	secs := max(int64(0), int64(d/time.Second))
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatRemaining renders the countdown of a view, or --:-- when untimed.
func FormatRemaining(view model.SessionView) string {
	if !view.TimeLimited || view.RemainingMs == nil {
		return "--:--"
	}
	return FormatClock(time.Duration(*view.RemainingMs) * time.Millisecond)
}

// Render draws a full screen for view. Lines end in "\n"; the runner
// converts them for raw terminals.
func Render(view model.SessionView, status string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  |  Question %d / %d  |  Time %s\n", view.Title, view.Current+1, view.Total, FormatRemaining(view))
	filled := int(view.Progress * progressWidth)
	filled = min(max(filled, 0), progressWidth)
	fmt.Fprintf(&b, "[%s%s]\n\n", strings.Repeat("#", filled), strings.Repeat(".", progressWidth-filled))

	if view.Result != nil {
		renderResult(&b, view.Result)
	} else if q := view.Question; q != nil {
		renderQuestion(&b, view, q)
	}

	if status != "" {
		fmt.Fprintf(&b, "\n%s\n", status)
	}
	return b.String()
}

func renderQuestion(b *strings.Builder, view model.SessionView, q *model.QuestionView) {
	fmt.Fprintf(b, "Q%d. %s\n\n", q.Number, q.Stem)
	if q.Type != model.QuestionTypeSingle {
		b.WriteString("  (this question type cannot be answered here)\n")
	}
	for _, opt := range q.Options {
		mark := "( )"
		if q.Selected != nil && *q.Selected == opt.Index {
			mark = "(*)"
		}
		fmt.Fprintf(b, "  %s %d) %s\n", mark, opt.Index+1, opt.Text)
	}

	next := "[Enter] next"
	if view.IsLast {
		next = "[Enter] submit"
	}
	help := []string{"[1-9] choose", next}
	if view.CanRetreat {
		help = append(help, "[b] back")
	}
	help = append(help, "[q] quit")
	fmt.Fprintf(b, "\n%s\n", strings.Join(help, "  "))
}

func renderResult(b *strings.Builder, res *model.ResultView) {
	b.WriteString("Result\n\n")
	fmt.Fprintf(b, "Score: %d / %d (%d%%)\n", res.Score, res.Total, res.Percent)
	if res.ElapsedMs != nil {
		fmt.Fprintf(b, "Elapsed: %s\n", FormatClock(time.Duration(*res.ElapsedMs)*time.Millisecond))
	}

	b.WriteString("\nBy tag:\n")
	for _, ts := range res.TagStats {
		fmt.Fprintf(b, "  - %s: %d/%d (%d%%)\n", ts.Tag, ts.Correct, ts.Count, ts.Percent)
	}

	if res.ShowMissed {
		b.WriteString("\nMissed questions (stem only):\n")
		if len(res.Missed) == 0 {
			b.WriteString("  No incorrect questions.\n")
		}
		for _, m := range res.Missed {
			fmt.Fprintf(b, "  Q%d. %s\n", m.Number, m.Stem)
		}
	}

	b.WriteString("\n[r] retry  [e] save result.json  [q] quit\n")
}
