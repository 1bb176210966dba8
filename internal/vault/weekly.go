package vault

import (
	"strings"

	"github.com/dcitarelli/workflow/internal/common"
)

// EnsureWeek returns the week entry for weekStart, creating or repairing
// it as needed. The second result reports whether the document changed,
// so callers know a save is warranted.
func EnsureWeek(doc *Document, weekStart, weekEnd string) (*Week, bool, error) {
	weekStart = strings.TrimSpace(weekStart)
	weekEnd = strings.TrimSpace(weekEnd)
	if weekStart == "" {
		return nil, false, common.ErrMissingWeek
	}
	changed := false
	if doc.Weekly == nil {
		doc.Weekly = map[string]*Week{}
		changed = true
	}
	week, ok := doc.Weekly[weekStart]
	if !ok || week == nil {
		week = &Week{WeekStart: weekStart, WeekEnd: weekEnd, Entries: map[string]*DayEntry{}}
		doc.Weekly[weekStart] = week
		changed = true
	}
	if week.WeekStart == "" {
		week.WeekStart = weekStart
		changed = true
	}
	if week.WeekEnd == "" && weekEnd != "" {
		week.WeekEnd = weekEnd
		changed = true
	}
	if week.Entries == nil {
		week.Entries = map[string]*DayEntry{}
		changed = true
	}
	return week, changed, nil
}

// SetWeek replaces the whole week entry for weekStart.
func SetWeek(doc *Document, weekStart, weekEnd string, entries map[string]*DayEntry) error {
	if strings.TrimSpace(weekStart) == "" {
		return common.ErrMissingWeek
	}
	if entries == nil {
		entries = map[string]*DayEntry{}
	}
	if doc.Weekly == nil {
		doc.Weekly = map[string]*Week{}
	}
	doc.Weekly[weekStart] = &Week{WeekStart: weekStart, WeekEnd: weekEnd, Entries: entries}
	return nil
}

// WeeklySummaryFilename names the markdown export for a week.
func WeeklySummaryFilename(weekStart string) string {
	return "Weekly_" + weekStart + "_Summary.md"
}

// BuildWeeklySummary renders the week as a markdown report: a header with
// the week range and generation time, an optional total when any day has
// both times, then per-day sections with start/end/total and the logged
// activities as bullets.
func BuildWeeklySummary(week *Week) string {
	type dayBlock struct {
		day        string
		start      string
		end        string
		total      string
		activities []string
	}

	weekStart := ""
	weekEnd := ""
	entries := map[string]*DayEntry{}
	if week != nil {
		weekStart = ClampString(week.WeekStart, 40, true)
		weekEnd = ClampString(week.WeekEnd, 40, true)
		if week.Entries != nil {
			entries = week.Entries
		}
	}

	var totalMinutes int64
	hasTotals := false
	var blocks []dayBlock

	for _, day := range WeeklySummaryDays {
		entry := entries[day]
		if entry == nil {
			entry = &DayEntry{}
		}
		startText := ClampString(entry.Start, 40, true)
		endText := ClampString(entry.End, 40, true)
		startMinutes, startOK := ParseWeeklyTime(startText)
		endMinutes, endOK := ParseWeeklyTime(endText)
		var dayMinutes int64
		dayKnown := false
		if startOK && endOK {
			diff := endMinutes - startMinutes
			if diff < 0 {
				diff += 24 * 60
			}
			dayMinutes = diff
			totalMinutes += diff
			hasTotals = true
			dayKnown = true
		}

		var activities []string
		for _, line := range strings.Split(entry.Content, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				activities = append(activities, "- "+trimmed)
			}
		}
		if len(activities) == 0 {
			activities = append(activities, "_No activities entered._")
		}

		blocks = append(blocks, dayBlock{
			day:        day,
			start:      startText,
			end:        endText,
			total:      FormatWeeklyHours(dayMinutes, dayKnown),
			activities: activities,
		})
	}

	var lines []string
	lines = append(lines, "# Weekly Summary", "")
	lines = append(lines, strings.TrimSpace("Week of "+weekStart+" to "+weekEnd), "")
	lines = append(lines, "Generated "+NowString(), "")
	if hasTotals {
		lines = append(lines, "Total Hours: "+FormatTotalHours(totalMinutes), "")
	}
	for _, block := range blocks {
		lines = append(lines, "## "+block.day, "")
		lines = append(lines, "Start: "+block.start)
		lines = append(lines, "End: "+block.end)
		lines = append(lines, "Total: "+block.total)
		lines = append(lines, "", "Activities:")
		lines = append(lines, block.activities...)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
