package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/engine"
	"github.com/kingrea/waypoint/internal/workflow/selector"
)

const progressWidth = 24

// RenderPaths draws the scored paths as a table. The recommended path, if
// any, is starred and highlighted.
func RenderPaths(paths []workflow.Path, recommendedID string) string {
	rows := make([][]string, 0, len(paths))
	highlight := -1
	for i, path := range paths {
		marker := fmt.Sprintf("%d", i+1)
		if path.ID == recommendedID && recommendedID != "" {
			marker = "★"
			highlight = i
		}
		missing := strings.Join(path.MissingCategories, ",")
		if missing == "" {
			missing = "-"
		}
		risk := fmt.Sprintf("%.1f", path.Risk.Overall)
		if path.Risk.Degraded {
			risk += "*"
		}
		rows = append(rows, []string{
			marker,
			strings.Join(path.Nodes, " → "),
			fmt.Sprintf("%d", path.CostUnits),
			fmt.Sprintf("$%.4f", path.CostUSD),
			risk,
			fmt.Sprintf("%.1f", path.Quality),
			fmt.Sprintf("%.2f", path.ROI),
			missing,
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("#", "PATH", "UNITS", "USD", "RISK", "QUALITY", "ROI", "MISSING").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Inherit(headingStyle)
			case row == highlight:
				return style.Inherit(recommendedStyle)
			}
			return style
		})
	return t.Render()
}

// RenderRuns draws one line per run summary.
func RenderRuns(runs []engine.Summary) string {
	if len(runs) == 0 {
		return mutedStyle.Render("no runs")
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.GraphID,
			statusLabel(run.Status),
			run.Current,
			fmt.Sprintf("%3.0f%%", run.Progress*100),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("RUN", "GRAPH", "STATUS", "NODE", "DONE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headingStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// RenderRun describes a single run with its cost counters, a progress bar,
// and the tail of its journal.
func RenderRun(run engine.Run, journal []logging.Entry) string {
	summary := run.Summary()
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("⬡ RUN %s", run.ID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Graph     %s (%s)\n", run.Definition.Name, run.Definition.ID)
	fmt.Fprintf(&b, "Status    %s\n", statusLabel(summary.Status))
	fmt.Fprintf(&b, "Node      %s\n", summary.Current)
	fmt.Fprintf(&b, "Progress  %s\n", progressBar(summary.Progress))
	fmt.Fprintf(&b, "Cost      %d spent · %d remaining\n", run.State.ActualCostUnits, run.State.RemainingCostUnits)
	fmt.Fprintf(&b, "Path      %s\n", pathTrail(run))
	if len(journal) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionTitleStyle.Render("Journal"))
		b.WriteString("\n")
		b.WriteString(renderJournal(journal))
		b.WriteString("\n")
	}
	return b.String()
}

func renderJournal(entries []logging.Entry) string {
	rows := make([][]string, 0, len(entries))
	warn := map[int]bool{}
	for i, entry := range entries {
		note := entry.Message
		if entry.Questions > 0 {
			note = fmt.Sprintf("%d question(s)", entry.Questions)
		}
		rows = append(rows, []string{
			entry.Time.Format("15:04:05"),
			string(entry.Event),
			entry.Node,
			fmt.Sprintf("%d", entry.Actual),
			fmt.Sprintf("%d", entry.Remaining),
			note,
		})
		warn[i] = entry.Level == logging.LevelWarn
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("TIME", "EVENT", "NODE", "SPENT", "LEFT", "NOTE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return mutedStyle.Padding(0, 1)
			case warn[row]:
				return labelStyleAbandoned.Padding(0, 1)
			}
			return detailTextStyle.Padding(0, 1)
		}).
		Render()
}

// RenderBatch lists the questions handed out for a node.
func RenderBatch(batch selector.Batch) string {
	if batch.Complete {
		return labelStyleComplete.Render("✓ run complete")
	}
	var b strings.Builder
	heading := fmt.Sprintf("Node %s", batch.NodeID)
	if batch.Advanced {
		heading += mutedStyle.Render("  (advanced)")
	}
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("\n")
	if len(batch.Questions) == 0 {
		b.WriteString(mutedStyle.Render("  no questions at this node"))
		b.WriteString("\n")
		return b.String()
	}
	for i, q := range batch.Questions {
		line := fmt.Sprintf("  %d. %s", i+1, q.Text)
		if q.Category != "" {
			line += mutedStyle.Render(fmt.Sprintf(" [%s]", q.Category))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func pathTrail(run engine.Run) string {
	parts := make([]string, len(run.Path.Nodes))
	done := make(map[string]struct{}, len(run.State.CompletedNodes))
	for _, id := range run.State.CompletedNodes {
		done[id] = struct{}{}
	}
	for i, id := range run.Path.Nodes {
		switch {
		case id == run.State.CurrentNode && run.State.Status == workflow.ExecutionActive:
			parts[i] = labelStyleActive.Render(id)
		case contains(done, id) || run.State.Status == workflow.ExecutionComplete:
			parts[i] = labelStyleComplete.Render(id)
		default:
			parts[i] = labelStyleDefault.Render(id)
		}
	}
	return strings.Join(parts, " → ")
}

func progressBar(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * progressWidth)
	return fmt.Sprintf("%s%s %3.0f%%",
		labelStyleComplete.Render(strings.Repeat("█", filled)),
		mutedStyle.Render(strings.Repeat("░", progressWidth-filled)),
		ratio*100)
}

func statusLabel(status workflow.ExecutionStatus) string {
	switch status {
	case workflow.ExecutionActive:
		return labelStyleActive.Render(string(status))
	case workflow.ExecutionComplete:
		return labelStyleComplete.Render(string(status))
	case workflow.ExecutionAbandoned:
		return labelStyleAbandoned.Render(string(status))
	default:
		return labelStyleDefault.Render(string(status))
	}
}

func contains(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}
