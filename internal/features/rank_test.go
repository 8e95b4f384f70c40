package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/inboxlens/internal/archive"
)

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("per-participant")
	require.NoError(t, err)
	assert.Equal(t, ByPerParticipant, k)

	_, err = ParseSortKey("vibes")
	assert.Error(t, err)
}

func TestTopConversations(t *testing.T) {
	convs := []archive.Conversation{
		conv("small", []string{"A"}, m("A", 1)),
		conv("big", []string{"A"}, m("A", 1), m("A", 2), m("A", 3)),
		conv("mid", []string{"A"}, m("A", 1), m("A", 2)),
	}

	top := TopConversations(convs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "big", top[0].Title)
	assert.Equal(t, "mid", top[1].Title)

	assert.Len(t, TopConversations(convs, 0), 3)
	assert.Len(t, TopConversations(convs, 10), 3)
	assert.Equal(t, "small", convs[0].Title)
}
