package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorDim).
	Padding(1, 2)

// RenderBox frames content with a rounded border, under an optional title.
func RenderBox(title string, content string) string {
	if title == "" {
		return boxStyle.Render(content)
	}
	return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
}

// dayDiff counts calendar days from now to t, using each value's own
// wall-clock date.
func dayDiff(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 12, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// RelativeDateFrom describes t relative to now: "Today", "In 3d", "2w ago".
func RelativeDateFrom(t time.Time, now time.Time) string {
	days := dayDiff(t, now)
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	case -1:
		return "Yesterday"
	}

	n, suffix := days, ""
	if n < 0 {
		n, suffix = -n, " ago"
	}
	var span string
	switch {
	case n < 14:
		span = fmt.Sprintf("%dd", n)
	case n < 60:
		span = fmt.Sprintf("%dw", n/7)
	default:
		span = fmt.Sprintf("%dmo", n/30)
	}
	if suffix != "" {
		return span + suffix
	}
	return "In " + span
}

// DueDateStyled colors a due date by urgency: overdue and the next two days
// in red, this week in yellow.
func DueDateStyled(due time.Time, now time.Time) string {
	text := due.Format("Mon Jan 2") + " " + Dim("("+RelativeDateFrom(due, now)+")")
	switch days := dayDiff(due, now); {
	case days <= 2:
		return StyleRed.Render(text)
	case days <= 7:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

// TruncID shows the first 8 characters of an ID, dimmed. Commands accept
// any unambiguous prefix, so this is enough to type back.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatMinutes renders a duration in minutes as "1h 30m", "2h" or "45m".
func FormatMinutes(min int) string {
	h, m := min/60, min%60
	switch {
	case min <= 0:
		return "0m"
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// Clock renders an instant with weekday, time and zone abbreviation.
func Clock(t time.Time) string {
	return t.Format("Mon Jan 2 15:04 MST")
}
