package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, events := hub.Subscribe()
	hub.Publish(NoteOnEvent(69, "A4", 440.0, 80, 0.9))

	select {
	case event := <-events:
		assert.Equal(t, EventNoteOn, event.Type)
		assert.Equal(t, uint8(69), event.Note)
		assert.Equal(t, "A4", event.NoteName)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHub_PublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	// Subscribe but never read; the buffer fills and further events drop.
	hub.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(NoteOffEvent(60, "C4"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	id, events := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(id)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-events
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	hub.Unsubscribe(id)
}

func TestHub_PublishStatusCoalescesBursts(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, events := hub.Subscribe()

	for i := 0; i < 20; i++ {
		hub.PublishStatus("update")
	}
	hub.PublishStatus("final")

	// The debounce delivers only the last message of the burst.
	select {
	case event := <-events:
		assert.Equal(t, EventStatus, event.Type)
		assert.Equal(t, "final", event.Message)
	case <-time.After(time.Second):
		t.Fatal("status never delivered")
	}

	select {
	case event := <-events:
		t.Fatalf("unexpected extra event: %+v", event)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestHub_CloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub()

	_, a := hub.Subscribe()
	_, b := hub.Subscribe()

	hub.Close()

	_, openA := <-a
	_, openB := <-b
	assert.False(t, openA)
	assert.False(t, openB)
	assert.Equal(t, 0, hub.SubscriberCount())
}
