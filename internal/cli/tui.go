package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/meshview/meshview/pkg/engine"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// nodeRow is one rendered table row.
type nodeRow struct {
	id       string
	name     string
	role     string
	kind     string
	lastSeen time.Time
	color    string // highlight color from the style engine
	selected bool
}

// refreshedMsg reports a completed (or failed) refresh cycle.
type refreshedMsg struct {
	result engine.CycleResult
	err    error
}

// watchTickMsg fires on the refresh interval.
type watchTickMsg time.Time

// WatchModel is the bubbletea model for the live topology view.
type WatchModel struct {
	eng      *engine.Engine
	interval time.Duration

	rows    []nodeRow
	cursor  int
	offset  int
	height  int
	last    engine.CycleResult
	lastErr error

	refreshing bool
}

// newWatchModel creates the watch view around a running engine.
func newWatchModel(eng *engine.Engine, interval time.Duration) WatchModel {
	return WatchModel{
		eng:        eng,
		interval:   interval,
		height:     20,
		refreshing: true,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

// refreshCmd runs one engine cycle off the UI goroutine.
func (m WatchModel) refreshCmd() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		res, err := eng.Refresh(context.Background())
		return refreshedMsg{result: res, err: err}
	}
}

// tickCmd schedules the next automatic refresh.
func (m WatchModel) tickCmd() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if m.cursor < len(m.rows) {
				if err := m.eng.Toggle(m.rows[m.cursor].id); err != nil {
					m.lastErr = err
				} else {
					m.lastErr = nil
				}
				m.reload()
			}
		case "c", "esc":
			m.eng.ClearSelection()
			m.lastErr = nil
			m.reload()
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, m.refreshCmd()
			}
		}

	case watchTickMsg:
		if m.refreshing {
			return m, m.tickCmd()
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case refreshedMsg:
		m.refreshing = false
		if msg.err != nil && !stderrors.Is(msg.err, engine.ErrRefreshInFlight) {
			m.lastErr = msg.err
		} else if msg.err == nil {
			m.last = msg.result
			m.lastErr = nil
		}
		m.reload()

	case tea.WindowSizeMsg:
		m.height = msg.Height - 9
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// reload rebuilds the row cache from the engine's buffer and styling.
func (m *WatchModel) reload() {
	buf := m.eng.Buffer()
	sty := m.eng.Style()
	sel := m.eng.Selection()

	nodes := buf.Nodes()
	rows := make([]nodeRow, 0, len(nodes))
	for _, n := range nodes {
		// Synthetic hop placeholders stay out of node listings.
		if n.Kind == mesh.KindRouteHidden {
			continue
		}
		name := n.LongName
		if name == "" {
			name = n.ShortName
		}
		rows = append(rows, nodeRow{
			id:       n.ID,
			name:     name,
			role:     n.Role,
			kind:     n.Kind.String(),
			lastSeen: n.LastSeen,
			color:    sty.NodeColor(n.ID),
			selected: sel.Selected(n.ID),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	m.rows = rows

	if m.cursor >= len(rows) && len(rows) > 0 {
		m.cursor = len(rows) - 1
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Mesh Topology"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  c clear  r refresh  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := " "
		if r.selected {
			mark = "●"
		}
		rows = append(rows, []string{
			cursor, mark, r.id, r.name, r.role, r.kind, formatRelativeTime(r.lastSeen),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Node", "Name", "Role", "Kind", "Last seen").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.offset + row
			if actualIdx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			r := m.rows[actualIdx]

			base := lipgloss.NewStyle().Foreground(lipgloss.Color(r.color))
			if col == 6 {
				base = base.Foreground(colorDim)
			}
			if actualIdx == m.cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(m.statusLine())

	return b.String()
}

// statusLine summarizes generation, counts, selection, and errors.
func (m WatchModel) statusLine() string {
	parts := []string{
		fmt.Sprintf("gen %d", m.last.Generation),
		fmt.Sprintf("%d nodes", m.last.Nodes),
		fmt.Sprintf("%d links", m.last.Links),
	}
	sel := m.eng.Selection()
	if sel.First != "" {
		s := sel.First
		if sel.Second != "" {
			s += " " + iconArrow + " " + sel.Second
		}
		parts = append(parts, StyleHighlight.Render(s))
	}
	if m.refreshing {
		parts = append(parts, "refreshing...")
	}
	line := "  " + listDimStyle.Render(strings.Join(parts, " · "))
	if m.lastErr != nil {
		line += "\n  " + StyleWarning.Render(errors.UserMessage(m.lastErr))
	}
	return line
}

// formatRelativeTime renders t relative to now for table display.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
