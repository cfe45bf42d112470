package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tracewire/tracewire/pkg/finding"
)

func sampleFindings() finding.List {
	return finding.List{
		{Severity: finding.SeverityError, Message: "link endpoint missing", LinkID: "l1"},
		{Severity: finding.SeverityWarning, Message: "device unreachable", NodeID: "n2"},
		{Severity: finding.SeverityInfo, Message: "no start devices detected"},
	}
}

func TestFindingsModelView(t *testing.T) {
	m := NewFindingsModel("Validation", sampleFindings())
	view := m.View()

	if !strings.Contains(view, "Validation") {
		t.Error("expected title in view")
	}
	if !strings.Contains(view, "link endpoint missing") {
		t.Error("expected finding message in view")
	}
	if !strings.Contains(view, "3/3") {
		t.Error("expected counter in footer")
	}
}

func TestFindingsModelFilterCycle(t *testing.T) {
	m := NewFindingsModel("Validation", sampleFindings())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = updated.(FindingsModel)
	if len(m.filtered) != 1 || m.filtered[0].Severity != finding.SeverityError {
		t.Fatalf("expected one error finding after first filter step, got %d", len(m.filtered))
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = updated.(FindingsModel)
	if len(m.filtered) != 1 || m.filtered[0].Severity != finding.SeverityWarning {
		t.Fatalf("expected one warning finding after second filter step, got %d", len(m.filtered))
	}
}

func TestFindingsModelNavigation(t *testing.T) {
	m := NewFindingsModel("Validation", sampleFindings())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(FindingsModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(FindingsModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("expected quit command on q")
	}
}
