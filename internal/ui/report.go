// Package ui renders engine output for the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
	"github.com/abhisek/prepcoach/internal/ui/components"
	"github.com/abhisek/prepcoach/internal/ui/theme"
)

// DefaultWidth is the report width when the caller has no terminal size.
const DefaultWidth = 72

// MasteryTree renders the tree with one bar per practiced node, indented by
// level. Unpracticed nodes are listed dimmed without a bar.
func MasteryTree(root *mastery.Node, width int) string {
	if root == nil {
		return theme.Hint.Render("No curriculum loaded.")
	}
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Overall mastery %.0f%%", root.Mastery)))
	b.WriteString(theme.Hint.Render(fmt.Sprintf("  %d attempts, %d mastered", root.TotalAttempts, root.MasteredCount)))
	b.WriteString("\n\n")

	var walk func(n *mastery.Node, depth int)
	walk = func(n *mastery.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		label := indent + n.Name
		if n.Name == "" {
			label = indent + n.ID
		}
		if n.Unpracticed {
			b.WriteString(theme.Hint.Render(label + "  (not started)"))
		} else {
			b.WriteString(components.NewMasteryBar(pad(label, width/3), n.Mastery, width).View())
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, c := range root.Children {
		walk(c, 0)
	}
	return b.String()
}

// Suggestions renders active suggestions as cards.
func Suggestions(list []suggestion.Suggestion) string {
	if len(list) == 0 {
		return theme.Hint.Render("No active suggestions.")
	}
	cards := make([]string, 0, len(list))
	for _, s := range list {
		body := theme.Title.Render(string(s.Category)) + "  " + theme.Body.Render(s.Message)
		if s.ActionName != "" {
			body += "\n" + theme.Hint.Render(s.ActionName+" → "+s.ActionURL)
		}
		cards = append(cards, theme.Card.Render(body))
	}
	return strings.Join(cards, "\n")
}

// Reviews renders the review schedule relative to now.
func Reviews(entries []spacedrep.Entry, names func(id string) string, now time.Time) string {
	if len(entries) == 0 {
		return theme.Hint.Render("Nothing scheduled.")
	}
	var b strings.Builder
	for _, e := range entries {
		name := e.SubtopicID
		if names != nil {
			name = names(e.SubtopicID)
		}
		var when string
		switch e.Status(now) {
		case spacedrep.ReviewOverdue:
			when = theme.Failing.Render(fmt.Sprintf("overdue %.1fd", e.OverdueDays))
		case spacedrep.ReviewDue:
			when = theme.Weak.Render("due now")
		default:
			when = theme.Hint.Render(fmt.Sprintf("in %dd", e.DaysUntilReview(now)))
		}
		fmt.Fprintf(&b, "%s  %s  %s\n", pad(name, 28), theme.Band(e.Mastery).Render(fmt.Sprintf("%3.0f%%", e.Mastery)), when)
	}
	return b.String()
}

func pad(s string, n int) string {
	if len([]rune(s)) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len([]rune(s)))
}
