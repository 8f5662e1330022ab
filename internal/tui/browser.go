// Package tui is the interactive apps browser behind `lineagekit browse`.
//
// Moving the cursor over the apps list dispatches a select-app command. The
// dispatcher runs the build lookup through a coalescing scheduler, so a fast
// scroll over many apps fetches the first and the last one only, and the
// result is posted back to the program as a message. Results for an app that
// is no longer highlighted are dropped.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vnykmshr/lineagekit/internal/lineageapps"
	"github.com/vnykmshr/lineagekit/pkg/dispatch"
)

// SelectApp is the command kind emitted when the highlighted app changes.
const SelectApp dispatch.Kind = "select-app"

// BuildSource looks up the builds shown for an app.
type BuildSource interface {
	DefaultBranchBuilds(ctx context.Context, app lineageapps.App) ([]lineageapps.Build, error)
}

// buildsMsg carries the builds of one app back into the program.
type buildsMsg struct {
	app    string
	builds []lineageapps.Build
	err    error
}

type appItem struct {
	app lineageapps.App
}

func (i appItem) Title() string       { return i.app.Name }
func (i appItem) Description() string { return i.app.Description }
func (i appItem) FilterValue() string { return i.app.Name }

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#167C80"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Browser is the bubbletea model of the apps browser.
type Browser struct {
	apps       map[string]lineageapps.App
	list       list.Model
	spinner    spinner.Model
	dispatcher *dispatch.Dispatcher
	endpoints  lineageapps.Endpoints
	logger     *slog.Logger

	selected string // highlighted app
	shown    string // app whose builds are on screen
	builds   []lineageapps.Build
	loading  bool
	err      error

	width  int
	height int
}

// NewBrowser creates the model and registers the select-app handler on d.
// send delivers messages to the running program, usually (*tea.Program).Send.
func NewBrowser(apps []lineageapps.App, source BuildSource, endpoints lineageapps.Endpoints,
	d *dispatch.Dispatcher, send func(tea.Msg), logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}

	items := make([]list.Item, len(apps))
	byName := make(map[string]lineageapps.App, len(apps))
	for i, a := range apps {
		items[i] = appItem{app: a}
		byName[a.Name] = a
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "LineageOS apps"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	b := &Browser{
		apps:       byName,
		list:       l,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		dispatcher: d,
		endpoints:  endpoints,
		logger:     logger,
	}

	err := d.Handle(SelectApp, func(ctx context.Context, cmd dispatch.Command) error {
		app, ok := byName[cmd.Target]
		if !ok {
			return fmt.Errorf("unknown app %q", cmd.Target)
		}
		builds, err := source.DefaultBranchBuilds(ctx, app)
		send(buildsMsg{app: app.Name, builds: builds, err: err})
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	b.syncSelection()
	return b.spinner.Tick
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.list.SetSize(b.listWidth(), max(0, msg.Height-2))
		return b, nil

	case tea.KeyMsg:
		if b.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "ctrl+c", "q":
				return b, tea.Quit
			case "r":
				b.reload()
				return b, nil
			}
		}

	case buildsMsg:
		if msg.app != b.selected {
			b.logger.Debug("dropping stale builds", "app", msg.app, "selected", b.selected)
			return b, nil
		}
		b.shown = msg.app
		b.builds = msg.builds
		b.err = msg.err
		b.loading = false
		return b, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	b.syncSelection()
	return b, cmd
}

// syncSelection dispatches a select-app command when the highlighted app
// changed.
func (b *Browser) syncSelection() {
	item, ok := b.list.SelectedItem().(appItem)
	if !ok || item.app.Name == b.selected {
		return
	}
	b.selected = item.app.Name
	b.reload()
}

func (b *Browser) reload() {
	if b.selected == "" {
		return
	}
	b.loading = true
	if err := b.dispatcher.Dispatch(dispatch.NewCommand(SelectApp, b.selected)); err != nil {
		b.loading = false
		b.err = err
	}
}

func (b *Browser) listWidth() int {
	return max(24, b.width/3)
}

// View implements tea.Model.
func (b *Browser) View() string {
	left := b.list.View()
	right := paneStyle.
		Width(max(30, b.width-b.listWidth()-4)).
		Render(b.renderBuilds())
	footer := dimStyle.Render("↑/↓ select · / filter · r reload · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		footer,
	)
}

func (b *Browser) renderBuilds() string {
	app, ok := b.apps[b.selected]
	if !ok {
		return dimStyle.Render("No apps")
	}

	lines := []string{
		headerStyle.Render(app.Name),
		dimStyle.Render(b.endpoints.RepoURL(app)),
		"",
	}

	switch {
	case b.loading && b.shown != b.selected:
		lines = append(lines, b.spinner.View()+" Loading builds...")
	case b.err != nil:
		lines = append(lines, errorStyle.Render("Error: "+b.err.Error()))
	case len(b.builds) == 0:
		lines = append(lines, "No builds available")
	default:
		for _, build := range b.builds {
			lines = append(lines, RenderBuild(build), "")
		}
	}
	return strings.Join(lines, "\n")
}

// RenderBuild formats one build entry.
func RenderBuild(build lineageapps.Build) string {
	return strings.Join([]string{
		fmt.Sprintf("%s (%s)", build.Description, build.ShortCommit()),
		dimStyle.Render(fmt.Sprintf("Author: %s <%s>", build.AuthorName, build.AuthorEmail)),
		dimStyle.Render("Branch: " + build.Branch),
		dimStyle.Render("Build date: " + build.Date.Local().Format("2006-01-02 15:04")),
	}, "\n")
}

// Run starts the browser on the terminal and blocks until the user quits.
// Lookups still in flight at that point are canceled.
func Run(ctx context.Context, apps []lineageapps.App, source BuildSource, endpoints lineageapps.Endpoints, logger *slog.Logger) error {
	return run(ctx, apps, source, endpoints, logger, func(ctx context.Context, m tea.Model) program {
		return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	})
}

// program is the part of *tea.Program the browser session drives.
type program interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

func run(ctx context.Context, apps []lineageapps.App, source BuildSource, endpoints lineageapps.Endpoints,
	logger *slog.Logger, newProgram func(context.Context, tea.Model) program) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := dispatch.New(dispatch.Config{Context: ctx, Logger: logger})

	var p program
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}

	b, err := NewBrowser(apps, source, endpoints, d, send, logger)
	if err != nil {
		return err
	}
	p = newProgram(ctx, b)

	_, runErr := p.Run()
	cancel()
	if err := d.Close(context.Background()); err != nil {
		return err
	}
	return runErr
}
