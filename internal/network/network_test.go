package network

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/inboxlens/internal/archive"
)

func conv(title string, participants []string, senders ...string) archive.Conversation {
	c := archive.Conversation{Title: title}
	for _, p := range participants {
		c.Participants = append(c.Participants, archive.Participant{Name: p})
	}
	for i, s := range senders {
		c.Messages = append(c.Messages, archive.Message{Sender: s, TimestampMS: int64(i)})
	}
	return c
}

// repeat returns name n times.
func repeat(name string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = name
	}
	return out
}

func assertNoSelfLoops(t *testing.T, edges []Edge) {
	t.Helper()
	for _, e := range edges {
		assert.NotEqual(t, e.Name, e.Connection, "self-loop %+v", e)
	}
}

func TestEmit_WeightIsNameSideCount(t *testing.T) {
	senders := append(repeat("A", 5), repeat("B", 2)...)
	c := conv("trio", []string{"A", "B", "C"}, senders...)

	edges := Emit([]archive.Conversation{c})
	require.Len(t, edges, 6, "each unordered pair is emitted from both sides")

	assert.Contains(t, edges, Edge{Name: "A", Connection: "B", Messages: 5})
	assert.Contains(t, edges, Edge{Name: "B", Connection: "A", Messages: 2})
	assert.Contains(t, edges, Edge{Name: "A", Connection: "C", Messages: 5})
	assert.Contains(t, edges, Edge{Name: "C", Connection: "A", Messages: 0})
	assertNoSelfLoops(t, edges)
}

func TestAggregate_SumsDuplicatePairs(t *testing.T) {
	edges := []Edge{
		{Name: "A", Connection: "B", Messages: 3},
		{Name: "B", Connection: "A", Messages: 1},
		{Name: "A", Connection: "B", Messages: 4},
	}

	got := Aggregate(edges)
	assert.Equal(t, []Edge{
		{Name: "A", Connection: "B", Messages: 7},
		{Name: "B", Connection: "A", Messages: 1},
	}, got)
}

func TestBuild_AggregatesAcrossConversations(t *testing.T) {
	convs := []archive.Conversation{
		conv("one", []string{"A", "B"}, repeat("A", 3)...),
		conv("two", []string{"A", "B", "C"}, repeat("A", 4)...),
	}

	edges := Build(convs, Options{})

	var ab []Edge
	for _, e := range edges {
		if e.Name == "A" && e.Connection == "B" {
			ab = append(ab, e)
		}
	}
	require.Len(t, ab, 1)
	assert.Equal(t, 7, ab[0].Messages)
}

func TestBuild_LimitKeepsBusiestConversations(t *testing.T) {
	convs := []archive.Conversation{
		conv("quiet", []string{"X", "Y"}, "X"),
		conv("busy", []string{"A", "B"}, "A", "A", "B"),
	}

	edges := Build(convs, Options{Limit: 1})
	assert.ElementsMatch(t, []Edge{
		{Name: "A", Connection: "B", Messages: 2},
		{Name: "B", Connection: "A", Messages: 1},
	}, edges)
}

func TestBuild_GroupOnly(t *testing.T) {
	convs := []archive.Conversation{
		conv("pair", []string{"A", "B"}, "A", "B"),
		conv("Hiking Club", []string{"A", "B", "C"}, "A", "A", "C"),
	}

	edges := Build(convs, Options{GroupOnly: true})
	assert.Equal(t, []Edge{
		{Name: "A", Connection: "Hiking Club", Messages: 2},
		{Name: "B", Connection: "Hiking Club", Messages: 0},
		{Name: "C", Connection: "Hiking Club", Messages: 1},
	}, edges)
}

func TestEmitGroups_SkipsParticipantNamedLikeGroup(t *testing.T) {
	c := conv("A", []string{"A", "B", "C"}, "A")
	edges := EmitGroups([]archive.Conversation{c})
	assertNoSelfLoops(t, edges)
	assert.Len(t, edges, 2)
}

func TestEmit_NoSelfLoops(t *testing.T) {
	convs := []archive.Conversation{
		conv("solo", []string{"Me"}, "Me", "Me"),
		conv("dup names", []string{"Sam", "Sam", "Alex"}, "Sam", "Alex"),
		conv("pair", []string{"Me", "Alex"}, "Me"),
	}

	assertNoSelfLoops(t, Emit(convs))
	assertNoSelfLoops(t, Build(convs, Options{}))
	assertNoSelfLoops(t, Build(convs, Options{GroupOnly: true}))

	// A single-participant conversation contributes nothing.
	assert.Empty(t, Emit(convs[:1]))
}

func TestEmit_NoSelfLoopsAcrossManyShapes(t *testing.T) {
	names := []string{"A", "B", "C", "A", "D"}
	for n := 0; n <= len(names); n++ {
		t.Run(fmt.Sprintf("participants=%d", n), func(t *testing.T) {
			c := conv("c", names[:n], names...)
			assertNoSelfLoops(t, Emit([]archive.Conversation{c}))
			assertNoSelfLoops(t, EmitGroups([]archive.Conversation{c}))
		})
	}
}

func TestUndirected(t *testing.T) {
	edges := []Edge{
		{Name: "A", Connection: "B", Messages: 5},
		{Name: "B", Connection: "A", Messages: 2},
		{Name: "C", Connection: "A", Messages: 7},
		{Name: "B", Connection: "C", Messages: 1},
	}

	assert.Equal(t, []UndirectedEdge{
		{A: "A", B: "B", Weight: 7},
		{A: "A", B: "C", Weight: 7},
		{A: "B", B: "C", Weight: 1},
	}, Undirected(edges))
}

func TestNodes(t *testing.T) {
	edges := []Edge{
		{Name: "A", Connection: "B", Messages: 5},
		{Name: "A", Connection: "C", Messages: 5},
		{Name: "B", Connection: "A", Messages: 2},
		{Name: "C", Connection: "A", Messages: 2},
	}

	assert.Equal(t, []Node{
		{Name: "A", Weight: 10},
		{Name: "B", Weight: 2},
		{Name: "C", Weight: 2},
	}, Nodes(edges))
}
