package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccollicutt/logsift/pkg/parser"
)

// styles holds the lipgloss styles for one output stream.
type styles struct {
	title     lipgloss.Style
	label     lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	border    lipgloss.Style
	muted     lipgloss.Style
	code      lipgloss.Style
	highlight lipgloss.Style
	levels    map[parser.Level]lipgloss.Style
}

// newStyles builds styles bound to w. Color is detected from w unless
// noColor is set, in which case every style renders plain text.
func newStyles(w io.Writer, noColor bool) *styles {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle()

	if noColor {
		return &styles{
			title:     plain,
			label:     plain,
			header:    plain,
			cell:      plain.Padding(0, 1),
			border:    plain,
			muted:     plain,
			code:      plain,
			highlight: plain,
			levels: map[parser.Level]lipgloss.Style{
				parser.LevelDebug:       plain,
				parser.LevelInformation: plain,
				parser.LevelWarning:     plain,
				parser.LevelError:       plain,
			},
		}
	}

	return &styles{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:     r.NewStyle().Bold(true),
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1),
		cell:      r.NewStyle().Padding(0, 1),
		border:    r.NewStyle().Foreground(lipgloss.Color("240")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		code:      r.NewStyle().Foreground(lipgloss.Color("39")),
		highlight: r.NewStyle().Background(lipgloss.Color("220")).Foreground(lipgloss.Color("0")),
		levels: map[parser.Level]lipgloss.Style{
			parser.LevelDebug:       r.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
			parser.LevelInformation: r.NewStyle().Foreground(lipgloss.Color("39")),
			parser.LevelWarning:     r.NewStyle().Foreground(lipgloss.Color("220")),
			parser.LevelError:       r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

func (s *styles) level(l parser.Level) lipgloss.Style {
	if st, ok := s.levels[l]; ok {
		return st
	}
	return s.cell
}
