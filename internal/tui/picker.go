// Package tui renders scored paths and lets a reviewer resolve an approval
// request from the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
)

// Action is what the reviewer decided to do with a request.
type Action int

const (
	ActionCancel Action = iota
	ActionApprove
	ActionReject
)

func (a Action) String() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionReject:
		return "reject"
	default:
		return "cancel"
	}
}

// Decision is the outcome of a picker session.
type Decision struct {
	Action Action
	PathID string
	Reason string
}

// Picker lists the scored paths of one approval request. Enter approves the
// highlighted path, r asks for a rejection reason, esc or q leaves without
// resolving.
type Picker struct {
	req       approval.Request
	pathList  list.Model
	reason    textinput.Model
	rejecting bool
	decision  Decision
	done      bool
	width     int
	height    int
	listWidth int
	showSide  bool
}

type pathItem struct {
	path        workflow.Path
	recommended bool
}

func (i pathItem) Title() string {
	title := strings.Join(i.path.Nodes, " → ")
	if i.recommended {
		return "★ " + title
	}
	return title
}

func (i pathItem) Description() string {
	return fmt.Sprintf("%d units · $%.4f · risk %.1f · quality %.1f",
		i.path.CostUnits, i.path.CostUSD, i.path.Risk.Overall, i.path.Quality)
}

func (i pathItem) FilterValue() string { return i.path.Key() }

// NewPicker builds a picker over the request's paths with the recommended
// path highlighted.
func NewPicker(req approval.Request) *Picker {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	recommended := ""
	if req.Recommended != nil {
		recommended = req.Recommended.ID
	}
	items := make([]list.Item, len(req.Paths))
	selected := 0
	for i, path := range req.Paths {
		items[i] = pathItem{path: path, recommended: path.ID == recommended}
		if path.ID == recommended {
			selected = i
		}
	}
	pathList := list.New(items, delegate, 0, 0)
	pathList.Title = fmt.Sprintf("Paths for %s (%s)", req.Definition.Name, req.Strategy)
	pathList.SetShowStatusBar(false)
	pathList.SetFilteringEnabled(true)
	pathList.Select(selected)

	reason := textinput.New()
	reason.Placeholder = "why is this plan rejected?"
	reason.CharLimit = 200

	return &Picker{req: req, pathList: pathList, reason: reason}
}

// Init implements tea.Model.
func (m *Picker) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.finish(Decision{Action: ActionCancel})
		}
		if m.rejecting {
			return m.updateReason(msg)
		}
		if m.pathList.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "esc", "q":
			return m.finish(Decision{Action: ActionCancel})
		case "enter":
			path := m.selectedPath()
			if path == nil {
				return m, nil
			}
			return m.finish(Decision{Action: ActionApprove, PathID: path.ID})
		case "r":
			m.rejecting = true
			return m, m.reason.Focus()
		}
	}

	var cmd tea.Cmd
	m.pathList, cmd = m.pathList.Update(msg)
	return m, cmd
}

func (m *Picker) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.rejecting = false
		m.reason.Blur()
		m.reason.Reset()
		return m, nil
	case "enter":
		reason := strings.TrimSpace(m.reason.Value())
		if reason == "" {
			reason = "rejected by reviewer"
		}
		return m.finish(Decision{Action: ActionReject, Reason: reason})
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

func (m *Picker) finish(decision Decision) (tea.Model, tea.Cmd) {
	m.decision = decision
	m.done = true
	return m, tea.Quit
}

func (m *Picker) resize(width, height int) {
	m.width = width
	m.height = height
	availableWidth := width - 4
	if availableWidth < 20 {
		availableWidth = width
	}
	m.showSide = width >= 100
	if m.showSide {
		m.listWidth = int(float64(availableWidth) * 0.5)
		if m.listWidth < 40 {
			m.listWidth = 40
		}
	} else {
		m.listWidth = availableWidth
	}
	listHeight := height - 10
	if listHeight < 5 {
		listHeight = height - 2
	}
	m.pathList.SetSize(m.listWidth, listHeight)
}

// View implements tea.Model.
func (m *Picker) View() string {
	if m.done {
		return ""
	}
	header := titleStyle.Render("⬡ APPROVE PLAN")
	content := m.pathList.View()
	if detail := m.renderDetail(); detail != "" {
		if m.showSide {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, detail)
		} else {
			content = fmt.Sprintf("%s\n\n%s", content, detail)
		}
	}
	if m.rejecting {
		prompt := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorBorderColor).
			Padding(0, 1).
			Render("Reject: " + m.reason.View())
		content = fmt.Sprintf("%s\n\n%s", content, prompt)
	}
	footer := statusStyle.Render("enter approve · r reject · / filter · esc quit")
	return fmt.Sprintf("%s\n%s\n%s", header, content, footer)
}

func (m *Picker) renderDetail() string {
	path := m.selectedPath()
	if path == nil {
		return ""
	}
	detailWidth := m.width - m.listWidth - 6
	if !m.showSide {
		detailWidth = m.width - 4
	}
	if detailWidth < 36 {
		detailWidth = 36
	}
	body := lipgloss.NewStyle().Width(detailWidth).Padding(0, 1)
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(detailWidth + 4)

	var sections []string
	title := headingStyle.Render(path.Key())
	if m.req.Recommended != nil && m.req.Recommended.ID == path.ID {
		title += "  " + recommendedStyle.Render("recommended")
	}
	sections = append(sections, title)
	sections = append(sections, fmt.Sprintf("Cost %d units ($%.4f)   ROI %.2f\nInput $%.4f   Output $%.4f",
		path.CostUnits, path.CostUSD, path.ROI, path.CostInputUSD, path.CostOutputUSD))
	sections = append(sections, fmt.Sprintf("%s\nOverall %.1f   Incompleteness %.1f   Complexity %.1f   Rework %.1f",
		sectionTitleStyle.Render("Risk"), path.Risk.Overall, path.Risk.Incompleteness, path.Risk.Complexity, path.Risk.Rework))
	if path.Risk.Degraded {
		sections = append(sections, mutedStyle.Render("category data unavailable; risk is a conservative default"))
	}
	if len(path.MissingCategories) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n%s", sectionTitleStyle.Render("Missing"),
			detailTextStyle.Render(strings.Join(path.MissingCategories, ", "))))
	}
	return border.Render(body.Render(strings.Join(sections, "\n\n")))
}

func (m *Picker) selectedPath() *workflow.Path {
	item, ok := m.pathList.SelectedItem().(pathItem)
	if !ok {
		return nil
	}
	return &item.path
}

// Decision returns the outcome once the picker has quit. Before that it
// reports a cancel.
func (m *Picker) Decision() Decision {
	return m.decision
}

// RunPicker runs the picker on the terminal until the reviewer decides.
func RunPicker(ctx context.Context, req approval.Request, opts ...tea.ProgramOption) (Decision, error) {
	picker := NewPicker(req)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(picker, opts...).Run()
	if err != nil {
		return Decision{}, fmt.Errorf("tui: picker: %w", err)
	}
	result, ok := final.(*Picker)
	if !ok {
		return Decision{}, fmt.Errorf("tui: picker returned %T", final)
	}
	return result.Decision(), nil
}
