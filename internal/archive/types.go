package archive

import (
	"bytes"
	"encoding/json"
)

// Participant is a conversation member, identified by display name only.
type Participant struct {
	Name string `json:"name"`
}

// Message is a single chat message. Only the fields the metrics need are kept.
type Message struct {
	Sender      string `json:"sender_name"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// ParticipantList is the participants field as found on disk. Known is false
// when the field was absent, null, not a list of {name} records, empty, or
// held a record without a name.
type ParticipantList struct {
	Names []Participant
	Known bool
}

// UnmarshalJSON never fails: anything that is not a non-empty list of
// participants decodes as an unknown list.
func (p *ParticipantList) UnmarshalJSON(data []byte) error {
	*p = ParticipantList{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var names []Participant
	if err := json.Unmarshal(data, &names); err != nil {
		return nil
	}
	if len(names) == 0 {
		return nil
	}
	for _, n := range names {
		if n.Name == "" {
			return nil
		}
	}
	*p = ParticipantList{Names: names, Known: true}
	return nil
}

// fragment is one on-disk message file.
type fragment struct {
	Title        string          `json:"title"`
	Participants ParticipantList `json:"participants"`
	Messages     []Message       `json:"messages"`
}

// RawConversation is every fragment sharing a title, merged, before
// participants are normalized.
type RawConversation struct {
	Title        string
	Participants ParticipantList
	Messages     []Message
	Fragments    int
}

// Conversation is a merged conversation whose participant list is never empty.
type Conversation struct {
	Title        string
	Participants []Participant
	Messages     []Message
	Fragments    int
}

// ParticipantCount is always at least 1 for a normalized conversation.
func (c Conversation) ParticipantCount() int {
	return len(c.Participants)
}

// SentBy tallies messages per sender name.
func (c Conversation) SentBy() map[string]int {
	counts := make(map[string]int, len(c.Participants))
	for _, m := range c.Messages {
		counts[m.Sender]++
	}
	return counts
}
