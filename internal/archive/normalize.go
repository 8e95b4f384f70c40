package archive

// Normalize resolves raw's participants. When they are unknown (absent,
// malformed or empty) the conversation gets a single participant named self,
// so a participant count of zero can never reach the feature stage. The
// boolean reports whether the substitution happened.
func Normalize(raw *RawConversation, self string) (Conversation, bool) {
	c := Conversation{
		Title:     raw.Title,
		Messages:  raw.Messages,
		Fragments: raw.Fragments,
	}
	if !raw.Participants.Known || len(raw.Participants.Names) == 0 {
		c.Participants = []Participant{{Name: self}}
		return c, true
	}
	c.Participants = append([]Participant(nil), raw.Participants.Names...)
	return c, false
}

// NormalizeAll normalizes every conversation in archive order and returns
// how many needed the self substitution.
func NormalizeAll(a *Archive, self string) ([]Conversation, int) {
	out := make([]Conversation, 0, a.Len())
	substituted := 0
	for _, raw := range a.Conversations() {
		c, sub := Normalize(raw, self)
		if sub {
			substituted++
		}
		out = append(out, c)
	}
	return out, substituted
}
