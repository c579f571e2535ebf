// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/resume-pivot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, marking the cut with "..."
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintRun outputs the run header: id, status, role and which phases exist.
func (p *Printer) PrintRun(run *types.Run) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", run.Status))
	if run.TargetRole != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", run.TargetRole))
	}
	if run.JobDescriptionSource != "" {
		sb.WriteString(fmt.Sprintf("JD:       %s\n", run.JobDescriptionSource))
	}
	sb.WriteString(fmt.Sprintf("Updated:  %s\n", run.UpdatedAt.Format(time.RFC3339)))
	if run.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", run.Error))
	}

	var present []string
	for _, name := range []string{
		types.PhaseNormalize, types.PhaseRoleDiscovery, types.PhaseSelectedRole,
		types.PhaseRequirements, types.PhaseMapping, types.PhaseBullets,
		types.PhaseScoring, types.PhaseDraft, types.PhaseChat,
	} {
		if run.HasPhase(name) {
			present = append(present, name)
		}
	}
	if len(present) > 0 {
		sb.WriteString(fmt.Sprintf("Phases:   %s\n", strings.Join(present, ", ")))
	}

	p.printBox("RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRoles outputs the proposed role candidates with their ids for selection.
func (p *Printer) PrintRoles(roles *types.RoleDiscovery) {
	if roles == nil || len(roles.Candidates) == 0 {
		return
	}

	var sb strings.Builder
	if roles.UsedFallback {
		sb.WriteString("(no roles proposed by the model; showing defaults)\n\n")
	}
	for i, c := range roles.Candidates {
		sb.WriteString(fmt.Sprintf("[%s] %s  (%.0f%%)\n", c.ID, c.Title, c.Confidence*100))
		if c.Rationale != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", c.Rationale))
		}
		if i < len(roles.Candidates)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PROPOSED ROLES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScoring outputs the top scored skills.
func (p *Printer) PrintScoring(scoring *types.SkillScoring) {
	if scoring == nil || len(scoring.Skills) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(scoring.Skills), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := scoring.Skills[i]
		sb.WriteString(fmt.Sprintf("%-32s %3d  %s\n", clip(s.Skill, 32), s.Score, s.Depth))
	}
	if len(scoring.Skills) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more skills\n", len(scoring.Skills)-maxItemsToShow))
	}

	p.printBox("SKILL SCORES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBullets outputs the editable bullets numbered the way chat messages refer to them.
func (p *Printer) PrintBullets(groups []types.BulletGroup) {
	if len(groups) == 0 {
		return
	}

	var sb strings.Builder
	for j, g := range groups {
		header := g.Title
		if g.Org != "" {
			header += " @ " + g.Org
		}
		sb.WriteString(fmt.Sprintf("Job %d: %s\n", j+1, header))
		for i, b := range g.Bullets {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, b))
		}
		if j < len(groups)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("BULLETS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDraft writes the draft text unboxed so it can be copied as-is.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDraft(draft *types.Draft) {
	if draft == nil || draft.Text == "" {
		return
	}
	fmt.Fprintln(p.out, draft.Text)
}

// PrintHistory outputs the run history, most recent first.
func (p *Printer) PrintHistory(history []types.RunSummary) {
	if len(history) == 0 {
		p.printBox("HISTORY", "No runs yet.")
		return
	}

	var sb strings.Builder
	for _, h := range history {
		role := h.TargetRole
		if role == "" {
			role = "-"
		}
		sb.WriteString(fmt.Sprintf("%-36s  %-14s  %s\n", h.ID, h.Status, role))
	}

	p.printBox("HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReply outputs an assistant chat reply.
func (p *Printer) PrintReply(reply string, intent *types.BulletEditIntent) {
	content := reply
	if intent != nil && intent.Style != types.StyleUndo {
		content += fmt.Sprintf("\n\n(style %s via %s, confidence %.2f)", intent.Style, intent.Layer, intent.Confidence)
	}
	p.printBox("ASSISTANT", content)
}
