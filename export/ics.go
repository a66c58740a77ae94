// Package export renders a scheduled project plan as an iCalendar file
// consumable by Google Calendar, Outlook, and Apple Calendar.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/kanso/plan"
)

const (
	// DefaultHoursPerDay converts task durations (working days) into
	// calendar hours.
	DefaultHoursPerDay = 8.0

	// workdayStartHour is when a working day begins.
	workdayStartHour = 9

	prodID    = "-//Kanso//Project Planner//EN"
	uidDomain = "kanso.local"
)

// Options controls calendar generation.
type Options struct {
	// StartDate is when the project begins. Zero means tomorrow at the
	// start of the working day.
	StartDate time.Time

	// HoursPerDay is the length of a working day. Zero means
	// DefaultHoursPerDay.
	HoursPerDay float64

	// IncludeWeekends schedules work on Saturday and Sunday too.
	IncludeWeekends bool

	// Now overrides the clock used for DTSTAMP and the default start
	// date. Nil means time.Now.
	Now func() time.Time
}

// GenerateICS renders the project as an ICS document. Task start offsets
// and durations are working days; they map onto the calendar through the
// working-hour arithmetic in Options.
func GenerateICS(project *plan.Project, opts Options) string {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	hoursPerDay := opts.HoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}

	start := opts.StartDate
	if start.IsZero() {
		t := now().AddDate(0, 0, 1)
		start = time.Date(t.Year(), t.Month(), t.Day(), workdayStartHour, 0, 0, 0, t.Location())
	}

	stamp := formatDateTime(now().UTC())

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + escapeText(project.Title),
		"X-WR-CALDESC:" + escapeText(project.Description),
	}

	for _, task := range project.Tasks {
		lines = append(lines, taskEvent(task, start, hoursPerDay, opts.IncludeWeekends, stamp)...)
	}

	projectEnd := addWorkingHours(start, project.TotalDuration*hoursPerDay, hoursPerDay, opts.IncludeWeekends)
	lines = append(lines,
		"BEGIN:VEVENT",
		"UID:"+newUID(),
		"DTSTAMP:"+stamp,
		"DTSTART;VALUE=DATE:"+start.Format("20060102"),
		"DTEND;VALUE=DATE:"+projectEnd.AddDate(0, 0, 1).Format("20060102"),
		"SUMMARY:"+escapeText(project.Title),
		"DESCRIPTION:"+escapeText(projectDescription(project)),
		// The summary event spans the whole project without blocking time.
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
	)

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// taskEvent renders one task as a time-blocking VEVENT.
func taskEvent(task plan.Task, projectStart time.Time, hoursPerDay float64, includeWeekends bool, stamp string) []string {
	taskStart := addWorkingHours(projectStart, task.StartOffset*hoursPerDay, hoursPerDay, includeWeekends)
	taskEnd := addWorkingHours(taskStart, (task.Duration+task.Buffer)*hoursPerDay, hoursPerDay, includeWeekends)

	return []string{
		"BEGIN:VEVENT",
		"UID:" + newUID(),
		"DTSTAMP:" + stamp,
		"DTSTART:" + formatDateTime(taskStart.UTC()),
		"DTEND:" + formatDateTime(taskEnd.UTC()),
		"SUMMARY:" + escapeText(task.Name),
		"DESCRIPTION:" + escapeText(taskDescription(task)),
		"CATEGORIES:" + escapeText(task.Phase),
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"END:VEVENT",
	}
}

// taskDescription summarizes a task for the event body.
func taskDescription(task plan.Task) string {
	var parts []string
	if task.Description != "" {
		parts = append(parts, task.Description, "")
	}

	parts = append(parts,
		"Phase: "+task.Phase,
		fmt.Sprintf("Duration: %.1f days", task.Duration),
	)
	if task.Buffer > 0 {
		parts = append(parts, fmt.Sprintf("Buffer: %.1f days", task.Buffer))
	}
	parts = append(parts, "Complexity: "+string(task.Complexity))

	if len(task.Subtasks) > 0 {
		parts = append(parts, "", "Subtasks:")
		for i, st := range task.Subtasks {
			line := fmt.Sprintf("  %d. %s (%.1f days)", i+1, st.Name, st.Duration)
			if st.Description != "" {
				line += " - " + st.Description
			}
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, "\n")
}

// projectDescription summarizes the whole project for the calendar-level
// event.
func projectDescription(project *plan.Project) string {
	lines := []string{
		"Project: " + project.Title,
		"",
	}
	if project.Description != "" {
		lines = append(lines, project.Description, "")
	}
	lines = append(lines,
		fmt.Sprintf("Total duration: %.1f working days", project.TotalDuration),
		fmt.Sprintf("Tasks: %d", len(project.Tasks)),
	)

	if len(project.Assumptions) > 0 {
		lines = append(lines, "", "Assumptions:")
		for _, a := range project.Assumptions {
			lines = append(lines, "- "+a)
		}
	}

	return strings.Join(lines, "\n")
}

// addWorkingHours advances a timestamp by the given number of working
// hours, spilling across day boundaries and skipping weekends unless
// they are included.
func addWorkingHours(start time.Time, hours, hoursPerDay float64, includeWeekends bool) time.Time {
	current := start
	remaining := hours

	for remaining > 1e-9 {
		if !includeWeekends && isWeekend(current) {
			current = nextWorkdayMorning(current)
			continue
		}

		dayStart := time.Date(current.Year(), current.Month(), current.Day(), workdayStartHour, 0, 0, 0, current.Location())
		if current.Before(dayStart) {
			current = dayStart
		}

		dayEnd := dayStart.Add(time.Duration(hoursPerDay * float64(time.Hour)))
		hoursLeftToday := dayEnd.Sub(current).Hours()
		if hoursLeftToday <= 0 {
			current = nextWorkdayMorning(current)
			continue
		}

		if remaining <= hoursLeftToday {
			current = current.Add(time.Duration(remaining * float64(time.Hour)))
			remaining = 0
		} else {
			remaining -= hoursLeftToday
			current = nextWorkdayMorning(current)
		}
	}

	return current
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func nextWorkdayMorning(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), workdayStartHour, 0, 0, 0, next.Location())
}

// formatDateTime renders a timestamp in the ICS UTC form.
func formatDateTime(t time.Time) string {
	return t.Format("20060102T150405Z")
}

// escapeText escapes commas, semicolons, backslashes, and newlines per
// RFC 5545.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}

func newUID() string {
	return uuid.NewString() + "@" + uidDomain
}
