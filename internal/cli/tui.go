package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/svgsprite/pkg/sprite"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

// =============================================================================
// BundleListModel - Interactive bundle selection
// =============================================================================

// BundleListModel is the bubbletea model for picking a bundle.
type BundleListModel struct {
	Names    []string
	Bundles  map[string]sprite.BundleInfo
	Cursor   int
	Offset   int
	Height   int
	Selected string
}

// NewBundleListModel creates a list over bundles, sorted by name.
func NewBundleListModel(bundles map[string]sprite.BundleInfo) BundleListModel {
	return BundleListModel{
		Names:   sprite.Names(bundles),
		Bundles: bundles,
		Height:  15,
	}
}

func (m BundleListModel) Init() tea.Cmd {
	return nil
}

func (m BundleListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Names) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Names[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m BundleListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Bundle"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Names))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		name := m.Names[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		info := m.Bundles[name]
		rows = append(rows, []string{cursor, name, fmt.Sprint(len(info.Symbols)), info.Path})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Bundle", "Symbols", "File").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Names))))

	return b.String()
}

// =============================================================================
// Symbol Table
// =============================================================================

// useSnippet is the markup that references symbol id from a page holding
// the sprite.
func useSnippet(class, id string) string {
	return fmt.Sprintf(`<svg class="%s"><use href="#%s"/></svg>`, class, id)
}

// symbolTable renders the members of one bundle with their snippets.
func symbolTable(name string, info sprite.BundleInfo, class string) string {
	rows := make([][]string, len(info.Symbols))
	for i, id := range info.Symbols {
		rows[i] = []string{id, useSnippet(class, id)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Symbol", "Usage").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return headerStyle
			case col == 0:
				return StyleHighlight
			default:
				return StyleDim
			}
		})

	return StyleTitle.Render(name) + "\n" + t.Render()
}
