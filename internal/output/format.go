// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"spacequest/internal/progress"
	"spacequest/internal/service"
)

const (
	// ColumnSeparator is the separator line for board column sections.
	ColumnSeparator = "------------"

	// BarWidth is the cell count of the text progress bar.
	BarWidth = 20

	// UnassignedHeading heads tasks whose status matches no column.
	UnassignedHeading = "(unassigned)"
)

// FormatTask formats a task line.
// Format: "{ID:<10}  {TITLE}  +{XP} XP\n", with a done mark for completed tasks.
func FormatTask(w io.Writer, task service.Task) {
	title := normalizeTitle(task.Title)
	mark := " "
	if task.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %-10s  %s  +%d XP", mark, task.ID, title, task.XPReward)
	if task.CreditReward > 0 {
		line += fmt.Sprintf(" +%d cr", task.CreditReward)
	}
	if task.DueDate != nil {
		line += "  due " + task.DueDate.Format("2006-01-02")
	}
	if task.Assignee != "" {
		line += "  @" + task.Assignee
	}
	fmt.Fprintln(w, line)
}

// FormatTaskIndented formats a task line inside a column section.
func FormatTaskIndented(w io.Writer, task service.Task) {
	fmt.Fprint(w, "    ")
	FormatTask(w, task)
}

// FormatColumnHeader formats a board column section header with its task count.
func FormatColumnHeader(w io.Writer, title string, count int) {
	fmt.Fprintln(w, ColumnSeparator)
	fmt.Fprintf(w, "%s (%d)\n", normalizeTitle(title), count)
	fmt.Fprintln(w, ColumnSeparator)
}

// FormatProject formats a project line for the projects command.
func FormatProject(w io.Writer, p service.ProjectSummary) {
	fmt.Fprintf(w, "%-10s  %s  (%d members)\n", p.ID, normalizeTitle(p.Name), p.MemberCount)
}

// FormatLeaderboardEntry formats one leaderboard row.
func FormatLeaderboardEntry(w io.Writer, e service.LeaderboardEntry, me bool) {
	marker := " "
	if me {
		marker = "*"
	}
	fmt.Fprintf(w, "%s%3d  %-16s  lvl %-3d  %d XP\n", marker, e.Position, e.Username, e.Level, e.XP)
}

// FormatShopItem formats one shop row.
func FormatShopItem(w io.Writer, item service.ShopItem) {
	owned := ""
	if item.Owned {
		owned = "  (owned)"
	}
	fmt.Fprintf(w, "%-10s  %-20s  %-8s  %d cr%s\n", item.ID, normalizeTitle(item.Name), item.Kind, item.Price, owned)
}

// ProgressBar renders a fixed-width text bar: "[#####-----]  50%".
func ProgressBar(frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * BarWidth)
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", BarWidth-filled), int(frac*100))
}

// FormatProgress formats the level line and its bar.
func FormatProgress(w io.Writer, p progress.Progress) {
	if p.Maxed {
		fmt.Fprintf(w, "Level %d (max)  %d XP\n", p.Level, p.XP)
		return
	}
	fmt.Fprintf(w, "Level %d  %d/%d XP  %s  %d to next\n",
		p.Level, p.XPInCurrentLevel, p.TotalXPForLevel, ProgressBar(p.Fraction), p.Remaining())
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
