package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

const statusDot = "●"

// Status colors follow the Teams presence palette.
var (
	colorAvailable   = lipgloss.Color("#92c353")
	colorAway        = lipgloss.Color("#fcd116")
	colorBusy        = lipgloss.Color("#c4314b")
	colorOutOfOffice = lipgloss.Color("#b4009e")
	colorOffline     = lipgloss.Color("#959595")
)

// StatusColor maps an availability to its indicator color. ok is false for
// values without a dedicated color.
func StatusColor(a directory.Availability) (lipgloss.Color, bool) {
	switch a {
	case directory.Available, directory.AvailableIdle:
		return colorAvailable, true
	case directory.Away, directory.BeRightBack:
		return colorAway, true
	case directory.Busy, directory.BusyIdle, directory.DoNotDisturb:
		return colorBusy, true
	case directory.OutOfOffice:
		return colorOutOfOffice, true
	case directory.Offline:
		return colorOffline, true
	}
	return "", false
}

// WriteTable renders entries as a bordered table with a colored status dot in
// front of each availability. Colors are dropped when w is not a terminal.
func WriteTable(w io.Writer, entries []directory.EnrichedEntry) error {
	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(colorOffline)).
		Headers("Name", "Job title", "Department", "Office", "Status", "Message")

	for _, e := range entries {
		status := string(e.Availability)
		if c, ok := StatusColor(e.Availability); ok {
			status = r.NewStyle().Foreground(c).Render(statusDot) + " " + status
		}
		t.Row(e.DisplayName, e.JobTitle, e.Department, e.OfficeLocation, status, e.StatusMessage)
	}
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d people\n", len(entries))
	return err
}
