package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

func TestPublishReachesOwnerOnly(t *testing.T) {
	h := NewHub(4, nil)
	alice := h.Subscribe("alice")
	bob := h.Subscribe("bob")
	defer alice.Close()
	defer bob.Close()

	h.PublishMatches([]domain.Match{{ID: "m1", OwnerID: "alice", MatchedWithUserID: "bob"}})

	ev := <-alice.Events()
	assert.Equal(t, EventMatchCreated, ev.Type)
	assert.Equal(t, "m1", ev.Match.ID)
	assert.Empty(t, bob.Events())
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub(1, nil)
	s := h.Subscribe("alice")
	defer s.Close()

	assert.Equal(t, 1, h.Publish("alice", Event{Type: EventMatchUpdated}))
	assert.Equal(t, 0, h.Publish("alice", Event{Type: EventMatchUpdated}))
}

func TestCloseUnsubscribes(t *testing.T) {
	h := NewHub(1, nil)
	s1 := h.Subscribe("alice")
	s2 := h.Subscribe("alice")
	require.Equal(t, 2, h.Subscribers("alice"))

	s1.Close()
	s1.Close()
	assert.Equal(t, 1, h.Subscribers("alice"))
	_, open := <-s1.Events()
	assert.False(t, open)

	h.PublishUpdate(domain.Match{ID: "m1", OwnerID: "alice", Status: domain.MatchStatusAccepted})
	ev := <-s2.Events()
	assert.Equal(t, domain.MatchStatusAccepted, ev.Match.Status)

	s2.Close()
	assert.Zero(t, h.Subscribers("alice"))
	assert.Zero(t, h.Publish("alice", Event{}))
}
