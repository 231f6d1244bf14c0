package stats

import (
	"time"

	"github.com/goodtune/focuswatch/internal/timefmt"
)

// MaxLevel is the highest heatmap intensity level.
const MaxLevel = 4

// Cell is one day in the heatmap grid.
type Cell struct {
	Date     string  `json:"date"`
	Seconds  float64 `json:"seconds"`
	Level    int     `json:"level"`
	InWindow bool    `json:"in_window"`
}

// Grid is a weekday-by-week activity grid. Each week runs Sunday..Saturday.
type Grid struct {
	Weeks [][7]Cell `json:"weeks"`
}

// Row returns the cells for one weekday across all weeks.
func (g Grid) Row(day time.Weekday) []Cell {
	row := make([]Cell, 0, len(g.Weeks))
	for _, week := range g.Weeks {
		row = append(row, week[day])
	}
	return row
}

// Level buckets seconds into 0..MaxLevel, saturating at one hour.
func Level(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	intensity := seconds / 3600
	switch {
	case intensity < 0.25:
		return 1
	case intensity < 0.5:
		return 2
	case intensity < 0.75:
		return 3
	default:
		return MaxLevel
	}
}

// Heatmap lays a stats window out as a grid. The first week starts on the
// Sunday on or before the oldest day of the window and the last week ends on
// the Saturday on or after today. Padding cells are outside the window.
func Heatmap(window []DayStat, today time.Time) Grid {
	if len(window) == 0 {
		return Grid{Weeks: [][7]Cell{}}
	}

	byDate := make(map[string]float64, len(window))
	for _, d := range window {
		byDate[d.Date] = d.Seconds
	}

	end := timefmt.StartOfDay(today)
	first := end.AddDate(0, 0, -(len(window) - 1))
	cursor := first.AddDate(0, 0, -int(first.Weekday()))

	var weeks [][7]Cell
	for !cursor.After(end) {
		var week [7]Cell
		for i := 0; i < 7; i++ {
			key := timefmt.DayKey(cursor)
			inWindow := !cursor.Before(first) && !cursor.After(end)
			cell := Cell{Date: key, InWindow: inWindow}
			if inWindow {
				cell.Seconds = byDate[key]
				cell.Level = Level(cell.Seconds)
			}
			week[cursor.Weekday()] = cell
			cursor = cursor.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}

	return Grid{Weeks: weeks}
}
