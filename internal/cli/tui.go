package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tracewire/tracewire/pkg/finding"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FindingsModel - Interactive findings browser
// =============================================================================

// FindingsModel is the bubbletea model for browsing check findings. It
// supports scrolling and cycling a severity filter.
type FindingsModel struct {
	Findings finding.List
	Title    string

	filter   finding.Severity // empty means all
	filtered finding.List
	Cursor   int
	Height   int
	Offset   int
}

// NewFindingsModel creates a findings browser over the given list.
func NewFindingsModel(title string, findings finding.List) FindingsModel {
	m := FindingsModel{
		Findings: findings,
		Title:    title,
		Height:   15,
	}
	m.applyFilter()
	return m
}

// filterCycle is the order the severity filter steps through.
var filterCycle = []finding.Severity{"", finding.SeverityError, finding.SeverityWarning, finding.SeverityInfo}

func (m *FindingsModel) applyFilter() {
	if m.filter == "" {
		m.filtered = m.Findings
	} else {
		m.filtered = nil
		for _, f := range m.Findings {
			if f.Severity == m.filter {
				m.filtered = append(m.filtered, f)
			}
		}
	}
	m.Cursor = 0
	m.Offset = 0
}

func (m FindingsModel) Init() tea.Cmd {
	return nil
}

func (m FindingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.filtered)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "f":
			for i, s := range filterCycle {
				if s == m.filter {
					m.filter = filterCycle[(i+1)%len(filterCycle)]
					break
				}
			}
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FindingsModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	if m.filter != "" {
		b.WriteString(" " + StyleDim.Render("(filter: "+string(m.filter)+")"))
	}
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(listDimStyle.Render("  nothing to show"))
		b.WriteString("\n")
	}

	end := min(m.Offset+m.Height, len(m.filtered))
	for i := m.Offset; i < end; i++ {
		f := m.filtered[i]
		icon := severityStyles[f.Severity].Render(severityIcons[f.Severity])

		line := fmt.Sprintf("%s %s", icon, f.Message)
		if f.NodeID != "" {
			line += listDimStyle.Render(" · node " + f.NodeID)
		}
		if f.LinkID != "" {
			line += listDimStyle.Render(" · link " + f.LinkID)
		}

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ ") + listNormalStyle.Render(line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d/%d  ·  ↑/↓ scroll · f filter · q quit",
		len(m.filtered), len(m.Findings))))
	return b.String()
}

// browseFindings runs the interactive findings browser.
func browseFindings(title string, findings finding.List) error {
	_, err := tea.NewProgram(NewFindingsModel(title, findings)).Run()
	return err
}
