package features

import (
	"fmt"
	"sort"

	"github.com/runnerr0/inboxlens/internal/archive"
)

// SortKey names the metric conversations are ranked by.
type SortKey string

const (
	ByMessages       SortKey = "messages"
	ByPerParticipant SortKey = "per-participant"
	ByActiveDays     SortKey = "active-days"
)

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case ByMessages, ByPerParticipant, ByActiveDays:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q (use messages, per-participant or active-days)", s)
}

// TopConversations returns the n conversations with the most messages,
// descending, ties in input order. n <= 0 returns all of them.
func TopConversations(convs []archive.Conversation, n int) []archive.Conversation {
	out := append([]archive.Conversation(nil), convs...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Messages) > len(out[j].Messages)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
