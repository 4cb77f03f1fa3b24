package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastDeliversToRegisteredClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{send: make(chan []byte, 4)}
	h.register <- client

	h.Broadcast(Event{Type: EventProcessingDone, ImageID: 7, Status: "completed"})

	select {
	case msg := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventProcessingDone, event.Type)
		assert.Equal(t, 7, event.ImageID)
		assert.Equal(t, "completed", event.Status)
		assert.NotZero(t, event.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	h.unregister <- client
}

func TestHub_BroadcastEvictsClientsWithFullSendBuffer(t *testing.T) {
	h := NewHub()
	go h.Run()

	// no reader and no buffer: the send in Run hits the default branch
	stuck := &Client{send: make(chan []byte)}
	h.register <- stuck

	h.Broadcast(Event{Type: EventUploadQueued, PhotoURI: "local:abc"})

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-stuck.send
	assert.False(t, open, "send channel should be closed on eviction")
}
