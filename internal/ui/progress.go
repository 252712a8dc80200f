package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"viper/internal/driver"
)

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type fileItem struct {
	path    string
	status  string
	state   driver.State
	elapsed time.Duration
	exit    driver.ExitCode
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders one line per
// compile unit. The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := driver.Event(msg)
		cmd := m.applyEvent(ev)
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-14, 20)

	for _, item := range m.items {
		name := truncate(item.path, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := fmt.Sprintf("  %s %s", statusStyled, name)
		switch {
		case item.status == "error":
			line += fmt.Sprintf("  (exit %d)", item.exit)
		case item.elapsed > 0:
			line += "  " + item.elapsed.Round(time.Millisecond).String()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		// link steps and other whole-build work only move the header
		if label := statusLabel(ev.State, ev.Status); label != "" && ev.File != "" {
			m.stageLabel = label
		}
		return nil
	}
	item := &m.items[idx]
	if label := statusLabel(ev.State, ev.Status); label != "" {
		item.status = label
	}
	if ev.State != driver.StateFailed {
		item.state = ev.State
	}
	item.elapsed = ev.Elapsed
	item.exit = ev.Exit
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var total float64
	for _, item := range m.items {
		switch item.status {
		case "done", "error":
			total++
		default:
			total += progressFromState(item.state)
		}
	}
	return total / float64(len(m.items))
}

// stages names the work that follows each state and how far along a unit
// in that state is.
var stages = map[driver.State]struct {
	label string
	frac  float64
}{
	driver.StateInit:      {"lexing", 0},
	driver.StateTokenized: {"parsing", 0.1},
	driver.StateParsed:    {"lowering", 0.25},
	driver.StateLowered:   {"verifying", 0.4},
	driver.StateVerified:  {"optimizing", 0.5},
	driver.StatePassed:    {"optimizing", 0.65},
	driver.StateGenerated: {"assembling", 0.8},
	driver.StateLinked:    {"linking", 0.95},
	driver.StateDone:      {"", 1},
}

func progressFromState(st driver.State) float64 { return stages[st].frac }

func stateLabel(st driver.State) string { return stages[st].label }

func statusLabel(st driver.State, status driver.Status) string {
	switch status {
	case driver.StatusQueued:
		return "queued"
	case driver.StatusDone:
		return "done"
	case driver.StatusError:
		return "error"
	case driver.StatusWorking:
		return stateLabel(st)
	}
	return ""
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	statusStyles = map[string]lipgloss.Style{
		"done":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"queued": lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		"":       lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	}
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func styleStatus(status string) lipgloss.Style {
	if st, ok := statusStyles[status]; ok {
		return st
	}
	return workingStyle
}

// truncate обрезает путь до ширины колонки, с "..." если есть место.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width-len(tail), "") + tail
}
