package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
	"github.com/san-kum/immunosim/internal/sim"
)

const frameRate = 30

var (
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Playback replays a run frame by frame. Tuning a parameter re-runs the
// simulation through the runner and restarts playback.
type Playback struct {
	title   string
	runner  *sim.Runner
	req     sim.Request
	start   sim.Request
	res     *sim.Result
	derived metrics.Derived
	stable  bool

	head     int
	speed    int
	running  bool
	opts     ChartOptions
	params   []string
	selected int
	err      error
	showHelp bool
}

// NewPlayback runs req once and prepares playback of the result.
func NewPlayback(ctx context.Context, title string, runner *sim.Runner, req sim.Request) (*Playback, error) {
	res, err := runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	p := &Playback{
		title:   title,
		runner:  runner,
		req:     cloneRequest(req),
		start:   cloneRequest(req),
		running: true,
		opts:    DefaultChartOptions(),
		params:  immunity.ParamNames(),
	}
	p.load(res)
	return p, nil
}

// SetTheme switches the color theme used by the chart and panel.
func (p *Playback) SetTheme(th Theme) {
	p.opts.Theme = th
}

func cloneRequest(r sim.Request) sim.Request {
	out := sim.Request{Grid: r.Grid, Overrides: map[string]float64{}, Initial: map[string]float64{}}
	for k, v := range r.Overrides {
		out.Overrides[k] = v
	}
	for k, v := range r.Initial {
		out.Initial[k] = v
	}
	return out
}

func (p *Playback) load(res *sim.Result) {
	p.res = res
	p.derived = p.runner.Metrics(res)
	p.stable = p.runner.Stability(res).Stable
	p.head = 1
	p.speed = max(res.Grid.Len()/(10*frameRate), 1)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (p *Playback) Init() tea.Cmd { return tick() }

func (p *Playback) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		case " ":
			p.running = !p.running
		case "r":
			p.req = cloneRequest(p.start)
			p.rerun()
		case "[":
			p.running = false
			p.head = max(p.head-p.speed, 1)
		case "]":
			p.running = false
			p.head = min(p.head+p.speed, p.res.Grid.Len())
		case "1", "2", "3", "4":
			j := int(msg.String()[0] - '1')
			p.opts.Visible[j] = !p.opts.Visible[j]
		case "l":
			p.opts.Log = !p.opts.Log
		case "tab":
			p.selected = (p.selected + 1) % len(p.params)
		case "up", "k":
			p.adjust(1.05)
		case "down", "j":
			p.adjust(0.95)
		case "t":
			p.opts.Theme = nextTheme(p.opts.Theme.Name)
		case "?":
			p.showHelp = !p.showHelp
		}
	case TickMsg:
		if p.running && p.head < p.res.Grid.Len() {
			p.head = min(p.head+p.speed, p.res.Grid.Len())
		}
		return p, tick()
	}
	return p, nil
}

// adjust scales the selected parameter and re-runs. An out-of-range value
// is reported and the previous run is kept.
func (p *Playback) adjust(factor float64) {
	name := p.params[p.selected]
	cur := p.current(name)
	prev, had := p.req.Overrides[name]
	p.req.Overrides[name] = cur * factor
	if !p.rerun() {
		if had {
			p.req.Overrides[name] = prev
		} else {
			delete(p.req.Overrides, name)
		}
	}
}

func (p *Playback) current(name string) float64 {
	v, _ := p.res.Params.Params().Get(name)
	return v
}

func (p *Playback) rerun() bool {
	res, err := p.runner.Run(context.Background(), p.req)
	p.err = err
	if err != nil {
		return false
	}
	p.load(res)
	p.running = true
	return true
}

func (p *Playback) status() string {
	switch {
	case p.err != nil:
		return StatusError.Render(p.err.Error())
	case p.head >= p.res.Grid.Len():
		return StatusPaused.Render("FINISHED")
	case p.running:
		return StatusRunning.Render("PLAYING")
	default:
		return StatusPaused.Render("PAUSED")
	}
}

func (p *Playback) View() string {
	opts := p.opts
	opts.Rows = p.head
	opts.Caption = "Time (days)"
	chart := Chart(p.res.Trajectory, opts)

	row := p.res.Trajectory.Row(p.head - 1)
	t := p.res.Grid[p.head-1]

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(p.title)) + "\n")
	s.WriteString(p.status() + "\n\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f / %.0f d", t, p.res.Grid.End())) + "\n")
	s.WriteString(ProgressBar(float64(p.head)/float64(p.res.Grid.Len()), 24) + "\n\n")

	for j, name := range immunity.VarNames {
		style := lipgloss.NewStyle().Foreground(opts.Theme.Series[j])
		if !opts.Visible[j] {
			style = Subtle
		}
		s.WriteString(labelStyle.Render(name) + style.Render(fmt.Sprintf("%.4g", row[j])) + "\n")
	}

	s.WriteString("\n" + labelStyle.Render("Peak V") + valueStyle.Render(fmt.Sprintf("%.4g @ %.2f", p.derived.PeakViralLoad, p.derived.PeakViralTime)) + "\n")
	s.WriteString(labelStyle.Render("Clearance") + valueStyle.Render(FormatClearance(p.derived)) + "\n")
	if !p.stable {
		s.WriteString(StatusError.Render("unstable run") + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	for i, name := range p.params {
		line := fmt.Sprintf("%-6s %.4g", name, p.current(name))
		if i == p.selected {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n1-4:Series L:Log T:Theme\n[ ]:Step Tab ↑↓:Tune ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, chart, "", Legend(opts.Theme)),
		panelStyle.Render(s.String()),
	)
	if p.showHelp {
		return KeyHint.Render(helpText) + "\n\n" + main
	}
	return main
}

const helpText = `Space     pause or resume playback
R         restart with the starting parameters
[ / ]     step backward or forward
1-4       toggle V, I, T, A
L         toggle log scale
Tab       select the next parameter
Up / K    raise the parameter by 5% and re-run
Down / J  lower the parameter by 5% and re-run
T         cycle color themes
Q         quit`

// RunPlayback opens the playback in the alternate screen.
func RunPlayback(p *Playback) error {
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
