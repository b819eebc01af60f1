// Package history implements the chat history browser: date grouping,
// row actions, selection, the preview loader and the dialog composing them.
package history

import (
	"sort"
	"strings"
	"time"

	"recall/internal/models"

	"github.com/dustin/go-humanize"
)

const (
	LabelToday      = "Today"
	LabelYesterday  = "Yesterday"
	LabelLast7Days  = "Previous 7 Days"
	LabelLast30Days = "Previous 30 Days"
)

// Group is a date-labelled bucket of chats, most recent first
type Group struct {
	Label string
	Chats []models.Chat
}

// Filter returns the chats whose title or id contains term, ignoring case.
// An empty term returns chats unchanged.
func Filter(chats []models.Chat, term string) []models.Chat {
	if term == "" {
		return chats
	}
	query := strings.ToLower(term)
	var out []models.Chat
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), query) ||
			strings.Contains(strings.ToLower(c.ID), query) {
			out = append(out, c)
		}
	}
	return out
}

// GroupChats filters chats by term and buckets the result by date relative to now
func GroupChats(chats []models.Chat, term string, now time.Time) []Group {
	return GroupByDate(Filter(chats, term), now)
}

// GroupByDate partitions chats into Today, Yesterday, Previous 7 Days,
// Previous 30 Days and then one bucket per calendar month. Every chat lands
// in exactly one group and no group is empty.
func GroupByDate(chats []models.Chat, now time.Time) []Group {
	if len(chats) == 0 {
		return nil
	}

	sorted := make([]models.Chat, len(chats))
	copy(sorted, chats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	loc := now.Location()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	var groups []Group
	add := func(label string, chat models.Chat) {
		// sorted input keeps labels contiguous
		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Chats = append(groups[n-1].Chats, chat)
			return
		}
		groups = append(groups, Group{Label: label, Chats: []models.Chat{chat}})
	}

	for _, chat := range sorted {
		created := chat.CreatedAt.In(loc)
		switch {
		case !created.Before(today):
			add(LabelToday, chat)
		case !created.Before(yesterday):
			add(LabelYesterday, chat)
		case !created.Before(weekAgo):
			add(LabelLast7Days, chat)
		case !created.Before(monthAgo):
			add(LabelLast30Days, chat)
		default:
			add(created.Format("January 2006"), chat)
		}
	}

	return groups
}

// Flatten returns the chats of groups in display order
func Flatten(groups []Group) []models.Chat {
	var out []models.Chat
	for _, g := range groups {
		out = append(out, g.Chats...)
	}
	return out
}

// startOfDay returns local midnight of the day containing t
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate renders a chat date for a list row. Chats grouped into the
// last week get a relative date, older ones a calendar date.
func FormatDate(t, now time.Time) string {
	t = t.In(now.Location())
	weekAgo := startOfDay(now).AddDate(0, 0, -7)
	switch {
	case !t.Before(weekAgo):
		return humanize.RelTime(t, now, "ago", "from now")
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}
