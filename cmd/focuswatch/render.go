package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/goodtune/focuswatch/internal/controller"
	"github.com/goodtune/focuswatch/internal/stats"
	"github.com/goodtune/focuswatch/internal/timefmt"
)

// levelGlyphs is indexed by heatmap level.
var levelGlyphs = [stats.MaxLevel + 1]string{"·", "░", "▒", "▓", "█"}

var levelColors = [stats.MaxLevel + 1]*color.Color{
	color.New(color.FgHiBlack),
	color.New(color.FgGreen),
	color.New(color.FgGreen),
	color.New(color.FgHiGreen),
	color.New(color.FgHiGreen, color.Bold),
}

func stateColor(state string) *color.Color {
	switch state {
	case "running":
		return color.New(color.FgGreen, color.Bold)
	case "paused":
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}

func renderStatus(w io.Writer, s controller.Status) {
	_, _ = stateColor(s.State).Fprintf(w, "● %-8s", s.State)
	fmt.Fprintf(w, " %s", s.Elapsed)
	if s.StartedAt != nil {
		fmt.Fprintf(w, "  since %s", s.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
}

func renderStats(w io.Writer, snap stats.Snapshot) {
	label := color.New(color.FgCyan, color.Bold)
	value := color.New(color.Bold)

	_, _ = label.Fprintf(w, "%-10s", "Total")
	_, _ = value.Fprintln(w, timefmt.FormatHuman(snap.Summary.TotalSeconds))

	_, _ = label.Fprintf(w, "%-10s", "Average")
	_, _ = value.Fprint(w, timefmt.FormatHuman(snap.Summary.AverageSeconds))
	fmt.Fprintf(w, "  per active day, last %d days\n", snap.Summary.AverageDays)

	_, _ = label.Fprintf(w, "%-10s", "Best day")
	if best := snap.Summary.BestDay; best != nil {
		_, _ = value.Fprint(w, timefmt.FormatHuman(best.Seconds))
		fmt.Fprintf(w, "  on %s\n", best.Date)
	} else {
		fmt.Fprintln(w, "none yet")
	}

	if len(snap.Window) == 0 {
		return
	}
	oldest := snap.Window[len(snap.Window)-1].Date
	newest := snap.Window[0].Date
	fmt.Fprintf(w, "\n%d days, %s to %s\n", snap.Days, oldest, newest)
	renderHeatmap(w, snap.Heatmap)
}

func renderHeatmap(w io.Writer, grid stats.Grid) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		fmt.Fprintf(w, "%s ", day.String()[:3])
		for _, cell := range grid.Row(day) {
			if !cell.InWindow {
				fmt.Fprint(w, " ")
				continue
			}
			_, _ = levelColors[cell.Level].Fprint(w, levelGlyphs[cell.Level])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, strings.Repeat(" ", 4)+"less ")
	for level := 0; level <= stats.MaxLevel; level++ {
		_, _ = levelColors[level].Fprint(w, levelGlyphs[level])
	}
	fmt.Fprintln(w, " more")
}
