package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TextFormatter formats reports as human-readable tables.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "logsift: %d logs, %d errors, %d API paths, %d exception types\n",
		report.TotalLogs,
		report.TotalErrors,
		len(report.APICalls),
		len(report.Exceptions))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	st := newStyles(w, f.opts.NoColor)
	var b strings.Builder

	b.WriteString(st.title.Render("=== Log Report ===") + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Date Range:"), report.DateRange)
	fmt.Fprintf(&b, "%s %d logs, %d errors\n\n", st.label.Render("Total:"), report.TotalLogs, report.TotalErrors)

	// Level distribution
	b.WriteString(st.title.Render("Log Level Distribution") + "\n")
	levels := make([][]string, 0, len(report.Levels))
	for _, r := range report.Levels {
		levels = append(levels, []string{
			st.level(r.Level).Render(strings.ToUpper(string(r.Level))),
			strconv.Itoa(r.Count),
			pct(r.Percentage),
		})
	}
	b.WriteString(f.table(st, []string{"Level", "Count", "Percentage"}, levels) + "\n\n")

	// Thread distribution
	fmt.Fprintf(&b, "%s %s\n", st.title.Render("Thread Distribution"),
		st.muted.Render(fmt.Sprintf("(top %d of %d threads)", len(report.Threads), report.ThreadCount)))
	threads := make([][]string, 0, len(report.Threads))
	for _, r := range report.Threads {
		threads = append(threads, []string{r.Thread, strconv.Itoa(r.Count), pct(r.Percentage)})
	}
	b.WriteString(f.table(st, []string{"Thread ID", "Count", "Percentage"}, threads) + "\n\n")

	// Time distribution
	b.WriteString(st.title.Render("Time Distribution") + "\n")
	hours := make([][]string, 0, len(report.Hours))
	for _, r := range report.Hours {
		hours = append(hours, []string{r.Label(), strconv.Itoa(r.Count), pct(r.Percentage)})
	}
	b.WriteString(f.table(st, []string{"Hour", "Count", "Percentage"}, hours) + "\n")

	if len(report.APICalls) > 0 {
		b.WriteString("\n" + st.title.Render("API Performance") + "\n")
		rows := make([][]string, 0, len(report.APICalls))
		for _, r := range report.APICalls {
			rows = append(rows, []string{
				r.Path,
				strconv.Itoa(r.Calls),
				strconv.FormatFloat(r.AvgTime, 'f', 2, 64) + "ms",
				strconv.FormatInt(r.MinTime, 10) + "ms",
				strconv.FormatInt(r.MaxTime, 10) + "ms",
				pct(r.ErrorRate),
			})
		}
		b.WriteString(f.table(st, []string{"API Path", "Calls", "Avg Time", "Min Time", "Max Time", "Error Rate"}, rows) + "\n")
	}

	if len(report.Exceptions) > 0 {
		b.WriteString("\n" + st.title.Render("Exception Analysis") + "\n")
		fmt.Fprintf(&b, "%s %d\n", st.label.Render("Total Errors:"), report.TotalErrors)
		rows := make([][]string, 0, len(report.Exceptions))
		for _, r := range report.Exceptions {
			rows = append(rows, []string{r.Type, strconv.Itoa(r.Count), r.TopMessage, strconv.Itoa(r.MessageCount)})
		}
		b.WriteString(f.table(st, []string{"Exception Type", "Count", "Most Common Message", "Message Count"}, rows) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// table renders rows under headers.
func (f *TextFormatter) table(st *styles, headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		})
	return t.Render()
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
