// Package features derives engagement metrics from normalized conversations.
// Every function is pure: inputs are never modified and results are new slices.
package features

import (
	"sort"
	"time"

	"github.com/runnerr0/inboxlens/internal/archive"
)

const (
	// LogSafeFloor is the smallest value ActiveDaysLogSafe takes, keeping a
	// logarithmic axis defined for conversations that lasted under a day.
	LogSafeFloor = 1.001

	msPerDay = 24 * 60 * 60 * 1000
)

// Options carries the settings every derivation needs.
type Options struct {
	// Self is the archive owner's display name.
	Self string

	// Location is the zone months are bucketed in; nil means time.Local.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// ConversationRow holds the scalar metrics of one conversation.
type ConversationRow struct {
	Title                  string    `json:"title"`
	MessageCount           int       `json:"message_count"`
	ParticipantCount       int       `json:"participant_count"`
	MessagesPerParticipant float64   `json:"messages_per_participant"`
	ActiveDays             float64   `json:"active_days"`
	ActiveDaysLogSafe      float64   `json:"active_days_log_safe"`
	SelfMessages           int       `json:"self_messages"`
	FirstMessage           time.Time `json:"first_message"`
	LastMessage            time.Time `json:"last_message"`
}

// MonthlyRow is a message count for one conversation in one month.
type MonthlyRow struct {
	Title string `json:"title"`
	Month Month  `json:"month"`
	Count int    `json:"count"`
}

// Derive computes a ConversationRow per conversation, in input order.
func Derive(convs []archive.Conversation, opts Options) []ConversationRow {
	rows := make([]ConversationRow, 0, len(convs))
	for _, c := range convs {
		rows = append(rows, deriveRow(c, opts))
	}
	return rows
}

func deriveRow(c archive.Conversation, opts Options) ConversationRow {
	row := ConversationRow{
		Title:            c.Title,
		MessageCount:     len(c.Messages),
		ParticipantCount: c.ParticipantCount(),
	}
	// Normalization guarantees at least one participant; keep the division
	// defined even for hand-built input.
	if row.ParticipantCount < 1 {
		row.ParticipantCount = 1
	}
	row.MessagesPerParticipant = float64(row.MessageCount) / float64(row.ParticipantCount)

	lo, hi, ok := span(c.Messages)
	if ok {
		row.ActiveDays = float64(hi-lo) / msPerDay
		row.FirstMessage = time.UnixMilli(lo).In(opts.location())
		row.LastMessage = time.UnixMilli(hi).In(opts.location())
	}
	row.ActiveDaysLogSafe = LogSafe(row.ActiveDays)

	for _, m := range c.Messages {
		if m.Sender == opts.Self {
			row.SelfMessages++
		}
	}
	return row
}

// LogSafe clamps days to LogSafeFloor from below.
func LogSafe(days float64) float64 {
	if days < LogSafeFloor {
		return LogSafeFloor
	}
	return days
}

// span returns the earliest and latest timestamps. Message order is not
// chronological, so both ends are scanned for.
func span(msgs []archive.Message) (lo, hi int64, ok bool) {
	if len(msgs) == 0 {
		return 0, 0, false
	}
	lo, hi = msgs[0].TimestampMS, msgs[0].TimestampMS
	for _, m := range msgs[1:] {
		if m.TimestampMS < lo {
			lo = m.TimestampMS
		}
		if m.TimestampMS > hi {
			hi = m.TimestampMS
		}
	}
	return lo, hi, true
}

// Monthly buckets each conversation's messages by calendar month.
//
// With selfOnly, only messages sent by opts.Self count, every row is titled
// opts.Self and counts are raw; rows from different conversations are not
// merged (see SelfTimeline). Otherwise each month's count is integer-divided
// by the participant count, which truncates: one message a month in a
// three-person chat reports 0.
//
// Conversations are emitted in input order, months ascending within each.
// Months without a qualifying message produce no row.
func Monthly(convs []archive.Conversation, opts Options, selfOnly bool) []MonthlyRow {
	loc := opts.location()
	var rows []MonthlyRow
	for _, c := range convs {
		counts := make(map[Month]int)
		for _, m := range c.Messages {
			if selfOnly && m.Sender != opts.Self {
				continue
			}
			counts[MonthOf(time.UnixMilli(m.TimestampMS).In(loc))]++
		}

		title := c.Title
		divisor := c.ParticipantCount()
		if selfOnly {
			title = opts.Self
			divisor = 1
		}
		if divisor < 1 {
			divisor = 1
		}

		for _, month := range sortedMonths(counts) {
			rows = append(rows, MonthlyRow{
				Title: title,
				Month: month,
				Count: counts[month] / divisor,
			})
		}
	}
	return rows
}

// SelfTimeline merges self-only monthly rows from every conversation into a
// single row per month, titled self, months ascending.
func SelfTimeline(rows []MonthlyRow, self string) []MonthlyRow {
	counts := make(map[Month]int)
	for _, r := range rows {
		counts[r.Month] += r.Count
	}
	out := make([]MonthlyRow, 0, len(counts))
	for _, month := range sortedMonths(counts) {
		out = append(out, MonthlyRow{Title: self, Month: month, Count: counts[month]})
	}
	return out
}

// Densify inserts zero rows for months missing between each title's first and
// last month. Titles keep their first-seen order; months come out ascending.
func Densify(rows []MonthlyRow) []MonthlyRow {
	var order []string
	byTitle := make(map[string]map[Month]int)
	for _, r := range rows {
		counts, ok := byTitle[r.Title]
		if !ok {
			counts = make(map[Month]int)
			byTitle[r.Title] = counts
			order = append(order, r.Title)
		}
		counts[r.Month] += r.Count
	}

	out := make([]MonthlyRow, 0, len(rows))
	for _, title := range order {
		months := sortedMonths(byTitle[title])
		first, last := months[0], months[len(months)-1]
		for m := first; !last.Before(m); m = m.Next() {
			out = append(out, MonthlyRow{Title: title, Month: m, Count: byTitle[title][m]})
		}
	}
	return out
}

func sortedMonths(counts map[Month]int) []Month {
	months := make([]Month, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
