package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nxarchive/typedstream/internal/display"
	"github.com/nxarchive/typedstream/wire"
	"github.com/spf13/cobra"
)

var browseMaxDepth int

var browseCmd = &cobra.Command{
	Use:   "browse <file>",
	Short: "Interactively browse the event stream of a typedstream archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}

		lines, counts, err := loadEventLines(filename, browseMaxDepth)
		if err != nil {
			return err
		}

		model := newBrowseModel(filename, lines, counts)
		program := tea.NewProgram(model, tea.WithAltScreen())
		_, err = program.Run()
		return err
	},
}

func init() {
	browseCmd.Flags().IntVar(&browseMaxDepth, "max-depth", 0,
		"cap how deep nested struct/array events are rendered (0 = unlimited)")
}

// loadEventLines runs the stream to completion once, since browse renders a
// static snapshot rather than following a live stream. It returns one
// display line per event plus a frequency count per event kind, for the
// sidebar histogram.
func loadEventLines(filename string, maxDepth int) ([]string, map[string]int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sr, err := wire.NewStreamReader(f)
	if err != nil {
		return nil, nil, err
	}

	var lines []string
	counts := make(map[string]int)
	depth := 0
	for {
		ev, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch ev.(type) {
		case wire.EndTypedValues, wire.EndObject, wire.EndArray, wire.EndStruct:
			depth--
		}
		if maxDepth <= 0 || depth <= maxDepth {
			lines = append(lines, display.EventLine(depth, ev))
		}
		counts[eventKind(ev)]++
		switch ev.(type) {
		case wire.BeginTypedValues, wire.BeginObject, wire.BeginArray, wire.BeginStruct:
			depth++
		}
	}
	return lines, counts, nil
}

func eventKind(ev wire.Event) string {
	switch ev.(type) {
	case wire.Header:
		return "Header"
	case wire.BeginTypedValues:
		return "BeginTypedValues"
	case wire.EndTypedValues:
		return "EndTypedValues"
	case wire.Atom:
		return "Atom"
	case wire.BeginObject:
		return "BeginObject"
	case wire.EndObject:
		return "EndObject"
	case wire.BeginArray:
		return "BeginArray"
	case wire.EndArray:
		return "EndArray"
	case wire.BeginStruct:
		return "BeginStruct"
	case wire.EndStruct:
		return "EndStruct"
	case wire.CString:
		return "CString"
	case wire.Selector:
		return "Selector"
	case wire.ObjectReference:
		return "ObjectReference"
	case wire.Nil:
		return "Nil"
	case wire.SingleClass:
		return "SingleClass"
	case wire.ClassReference:
		return "ClassReference"
	default:
		return "Other"
	}
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	PageUp key.Binding
	PageDn key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.PageUp, k.PageDn, k.Quit}}
}

var browseKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "page down")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type browseModel struct {
	filename string
	lines    []string
	viewport viewport.Model
	help     help.Model
	counts   map[string]int

	width  int
	height int
	ready  bool
}

func newBrowseModel(filename string, lines []string, counts map[string]int) *browseModel {
	return &browseModel{
		filename: filename,
		lines:    lines,
		help:     help.New(),
		counts:   counts,
	}
}

func joinLines(lines []string) string {
	s := ""
	for i, l := range lines {
		if i > 0 {
			s += "\n"
		}
		s += l
	}
	return s
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		sidebarWidth := sidebarWidthFor(m.width)
		headerHeight := lipgloss.Height(m.renderHeader())
		helpHeight := lipgloss.Height(m.help.View(browseKeys))
		contentHeight := m.height - headerHeight - helpHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width-sidebarWidth, contentHeight)
			m.viewport.SetContent(joinLines(m.lines))
			m.ready = true
		} else {
			m.viewport.Width = m.width - sidebarWidth
			m.viewport.Height = contentHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	if !m.ready {
		return ""
	}
	sidebar := m.renderSidebar()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.help.View(browseKeys))
}

func (m *browseModel) renderHeader() string {
	title := fmt.Sprintf("tstream browse — %s", m.filename)
	return display.TitleStyle.Width(m.width).Render(title)
}

func sidebarWidthFor(totalWidth int) int {
	w := totalWidth / 4
	if w < 20 {
		w = 20
	}
	if w > totalWidth {
		w = totalWidth
	}
	return w
}

// renderSidebar draws a histogram of event-kind frequency, the one-shot
// analogue of the teacher's live memory-pressure line chart: there is no
// time axis here, just a per-category bar.
func (m *browseModel) renderSidebar() string {
	width := sidebarWidthFor(m.width)
	height := m.viewport.Height

	kinds := make([]string, 0, len(m.counts))
	for k := range m.counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return m.counts[kinds[i]] > m.counts[kinds[j]] })

	bc := barchart.New(width-2, height-2)
	for _, k := range kinds {
		bc.Push(barchart.BarData{
			Label: k,
			Values: []barchart.BarValue{
				{Name: k, Value: float64(m.counts[k]), Style: display.ObjectStyle},
			},
		})
	}
	bc.Draw()

	return lipgloss.NewStyle().Width(width).Height(height).
		Border(lipgloss.NormalBorder()).BorderForeground(display.BorderColor).
		Render(bc.View())
}
