package storage

import (
	"time"

	"github.com/runnerr0/inboxlens/internal/features"
)

// MonthlyKind tells apart the three monthly tables held in the frame.
type MonthlyKind string

const (
	// MonthlyConversation rows are per conversation, divided by participants.
	MonthlyConversation MonthlyKind = "conversation"
	// MonthlySelf rows are self-only, per conversation, raw counts.
	MonthlySelf MonthlyKind = "self"
	// MonthlyTimeline rows are self-only counts merged across conversations.
	MonthlyTimeline MonthlyKind = "timeline"
)

// EdgeKind tells apart participant-to-participant and participant-to-group edges.
type EdgeKind string

const (
	EdgePairwise EdgeKind = "pairwise"
	EdgeGroup    EdgeKind = "group"
)

// Meta records which run produced the frame.
type Meta struct {
	RunID       string
	Self        string
	ArchivePath string
	Timezone    string
	CreatedAt   time.Time
}

// RankQuery selects and orders conversation rows.
type RankQuery struct {
	SortBy          features.SortKey
	Match           string // case-insensitive title substring
	MinParticipants int
	Limit           int
	Offset          int
}

// MonthlyQuery selects monthly rows of one kind. Zero months are unbounded.
type MonthlyQuery struct {
	Kind  MonthlyKind
	Title string
	Since features.Month
	Until features.Month
}

// EdgeQuery selects aggregated edges, heaviest first.
type EdgeQuery struct {
	Kind      EdgeKind
	MinWeight int
	Limit     int
}

// Stats holds archive-wide figures computed from the frame.
type Stats struct {
	TotalConversations int64
	TotalMessages      int64
	SelfMessages       int64
	GroupConversations int64
	FirstMessage       time.Time
	LastMessage        time.Time
	ActiveMonths       int64 // months with at least one message
	BusiestMonth       MonthCount
	TopConversations   []ConversationCount
}

// ConversationCount pairs a conversation title with its message count.
type ConversationCount struct {
	Title string
	Count int64
}

// MonthCount pairs a month with a message count.
type MonthCount struct {
	Month features.Month
	Count int64
}
