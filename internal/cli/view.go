package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proctree/pkg/graph"
	"github.com/matzehuels/proctree/pkg/pipeline"
	"github.com/matzehuels/proctree/pkg/viewport"
)

const (
	// cellAspect is the height of a terminal cell in width units.
	cellAspect = 2.0

	// frameInterval paces redraws while a fit transition runs.
	frameInterval = time.Second / 30

	panStep  = 4.0
	zoomStep = 1.25

	// chromeLines is the number of terminal lines not used by the canvas.
	chromeLines = 2
)

// Viewer styles
var (
	viewNodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewLinkStyle  = lipgloss.NewStyle().Foreground(colorDim)
	viewLabelStyle = lipgloss.NewStyle().Foreground(colorWhite)
	viewHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// viewCommand creates the interactive tree viewer.
func (c *CLI) viewCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "view [graph.json|graph.toml]",
		Short: "Explore a tree interactively in the terminal",
		Long: `Explore a tree interactively in the terminal.

The tree is fitted into the terminal and refitted with a short animation
whenever the terminal is resized. Panning or zooming takes over: from then
on resizes keep your view until you press f to fit again.

Keys:
  arrows, hjkl  pan
  + -           zoom around the center
  f             fit
  q             quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg.Options())
			return c.runView(cmd.Context(), args[0], opts)
		},
	}

	addTreeFlags(cmd, &opts)
	addFillFlag(cmd, &opts)

	return cmd
}

// runView builds the tree and hands it to the viewer.
func (c *CLI) runView(ctx context.Context, input string, opts pipeline.Options) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Tree(ctx, g, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newViewModel(res, opts.Fill, time.Now), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// ViewModel - Interactive tree viewer
// =============================================================================

// frameMsg advances a running fit transition.
type frameMsg time.Time

// ViewModel is the bubbletea model of the tree viewer. The viewport is the
// terminal: one width unit per column and cellAspect units per line.
type ViewModel struct {
	res  *pipeline.TreeResult
	ctrl *viewport.Controller
	now  func() time.Time

	cols, rows int
}

func newViewModel(res *pipeline.TreeResult, fill float64, now func() time.Time) *ViewModel {
	ctrl := viewport.NewController(viewport.Size{})
	ctrl.Fill = fill
	ctrl.Now = now
	// The terminal size is not known yet; the first resize fits.
	ctrl.SetData(res.Layout.Box)
	return &ViewModel{res: res, ctrl: ctrl, now: now}
}

func (m *ViewModel) Init() tea.Cmd {
	return nil
}

func (m *ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		if m.ctrl.Resize(m.canvasSize()) {
			return m, m.frame()
		}
	case frameMsg:
		if m.ctrl.Animating(m.now()) {
			return m, m.frame()
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.ctrl.Current(m.now())
	size := m.canvasSize()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		m.ctrl.Gesture(cur.Translate(panStep, 0))
	case "right", "l":
		m.ctrl.Gesture(cur.Translate(-panStep, 0))
	case "up", "k":
		m.ctrl.Gesture(cur.Translate(0, panStep*cellAspect))
	case "down", "j":
		m.ctrl.Gesture(cur.Translate(0, -panStep*cellAspect))
	case "+", "=":
		m.ctrl.Gesture(cur.ZoomAt(zoomStep, size.Width/2, size.Height/2))
	case "-", "_":
		m.ctrl.Gesture(cur.ZoomAt(1/zoomStep, size.Width/2, size.Height/2))
	case "f", "0":
		if m.ctrl.SetData(m.res.Layout.Box) {
			return m, m.frame()
		}
	}
	return m, nil
}

func (m *ViewModel) frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *ViewModel) canvasSize() viewport.Size {
	lines := max(m.rows-chromeLines, 0)
	return viewport.Size{Width: float64(m.cols), Height: float64(lines) * cellAspect}
}

func (m *ViewModel) View() string {
	if m.cols == 0 || m.rows <= chromeLines {
		return ""
	}
	t := m.ctrl.Current(m.now())

	var b strings.Builder
	if m.res.Tree.IsEmpty() {
		b.WriteString(viewHelpStyle.Render("No data"))
		b.WriteString(strings.Repeat("\n", m.rows-chromeLines))
	} else {
		b.WriteString(m.drawCanvas(t))
	}
	b.WriteString(m.statusLine(t))
	b.WriteString("\n")
	b.WriteString(viewHelpStyle.Render("arrows pan  +/- zoom  f fit  q quit"))
	return b.String()
}

func (m *ViewModel) statusLine(t viewport.Transform) string {
	mode := "auto"
	if m.ctrl.UserOverride() {
		mode = "manual"
	}
	line := fmt.Sprintf("%s  %s  %d nodes", t, mode, m.res.Tree.Len())
	return StyleDim.Render(line)
}

// cell is one character of the canvas.
type cell struct {
	r     rune
	style *lipgloss.Style
}

// drawCanvas rasterizes links and nodes with transform t.
func (m *ViewModel) drawCanvas(t viewport.Transform) string {
	w, h := m.cols, m.rows-chromeLines
	grid := make([][]cell, h)
	for i := range grid {
		grid[i] = make([]cell, w)
	}
	put := func(x, y float64, r rune, style *lipgloss.Style) (int, int, bool) {
		col, row := int(math.Round(x)), int(math.Round(y/cellAspect))
		if col < 0 || col >= w || row < 0 || row >= h {
			return col, row, false
		}
		grid[row][col] = cell{r: r, style: style}
		return col, row, true
	}

	l := m.res.Layout
	for _, link := range l.Links {
		if n, ok := m.res.Tree.Node(link.Parent); ok && n.Virtual {
			continue
		}
		p, _ := l.Position(link.Parent)
		c, _ := l.Position(link.Child)
		x0, y0 := t.Apply(p.X, p.Y)
		x1, y1 := t.Apply(c.X, c.Y)
		steps := int(max(math.Abs(x1-x0), math.Abs(y1-y0)/cellAspect))
		for i := 1; i < steps; i++ {
			f := float64(i) / float64(steps)
			put(x0+(x1-x0)*f, y0+(y1-y0)*f, '·', &viewLinkStyle)
		}
	}

	for _, n := range m.res.Tree.Nodes() {
		if n.Virtual {
			continue
		}
		p, ok := l.Position(n.ID)
		if !ok {
			continue
		}
		x, y := t.Apply(p.X, p.Y)
		col, row, ok := put(x, y, '●', &viewNodeStyle)
		if !ok {
			continue
		}
		for i, r := range []rune(" " + n.Data.DisplayLabel()) {
			if col+1+i >= w {
				break
			}
			grid[row][col+1+i] = cell{r: r, style: &viewLabelStyle}
		}
	}

	var b strings.Builder
	for _, line := range grid {
		for _, c := range line {
			switch {
			case c.r == 0:
				b.WriteByte(' ')
			case c.style != nil:
				b.WriteString(c.style.Render(string(c.r)))
			default:
				b.WriteRune(c.r)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
