package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMessageTypes_Distinct(t *testing.T) {
	types := []MessageType{MsgEvent, MsgDone, MsgError}
	seen := make(map[MessageType]bool)
	for _, mt := range types {
		if seen[mt] {
			t.Errorf("duplicate message type: %s", mt)
		}
		seen[mt] = true
	}
}

func TestMessageSerialization(t *testing.T) {
	msg := Message{
		Type:    MsgEvent,
		Payload: json.RawMessage(`{"line":"Grid size: 3x3"}`),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Type != MsgEvent {
		t.Errorf("Type = %q, want %q", decoded.Type, MsgEvent)
	}
}

func newTestSubscriber(jobID uuid.UUID) *Subscriber {
	return &Subscriber{
		ID:    uuid.New(),
		JobID: jobID,
		Send:  make(chan []byte, 8),
	}
}

func TestHub_RegisterAndBroadcastEvent(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobID := uuid.New()
	sub := newTestSubscriber(jobID)
	h.Register(sub)

	// Give the register case time to land before broadcasting.
	time.Sleep(20 * time.Millisecond)

	h.BroadcastEvent(jobID, "Grid size: 3x3")

	select {
	case data := <-sub.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode broadcast message: %v", err)
		}
		if msg.Type != MsgEvent {
			t.Errorf("Type = %q, want %q", msg.Type, MsgEvent)
		}
		var payload EventPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("failed to decode event payload: %v", err)
		}
		if payload.Line != "Grid size: 3x3" {
			t.Errorf("Line = %q, want %q", payload.Line, "Grid size: 3x3")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHub_BroadcastOnlyReachesSubscribersOfThatJob(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobA := uuid.New()
	jobB := uuid.New()
	subA := newTestSubscriber(jobA)
	subB := newTestSubscriber(jobB)
	h.Register(subA)
	h.Register(subB)
	time.Sleep(20 * time.Millisecond)

	h.BroadcastEvent(jobA, "only for job A")

	select {
	case <-subA.Send:
	case <-time.After(time.Second):
		t.Fatal("subA never received its job's broadcast")
	}

	select {
	case data := <-subB.Send:
		t.Fatalf("subB should not receive job A's broadcast, got %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobID := uuid.New()
	sub := newTestSubscriber(jobID)
	h.Register(sub)
	time.Sleep(20 * time.Millisecond)

	h.Unregister(sub)
	time.Sleep(20 * time.Millisecond)

	_, ok := <-sub.Send
	if ok {
		t.Error("expected Send channel to be closed after unregister")
	}
}

func TestHub_BroadcastDone(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobID := uuid.New()
	sub := newTestSubscriber(jobID)
	h.Register(sub)
	time.Sleep(20 * time.Millisecond)

	h.BroadcastDone(jobID, "solved")

	select {
	case data := <-sub.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode done message: %v", err)
		}
		if msg.Type != MsgDone {
			t.Errorf("Type = %q, want %q", msg.Type, MsgDone)
		}
		var payload DonePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("failed to decode done payload: %v", err)
		}
		if payload.Status != "solved" {
			t.Errorf("Status = %q, want %q", payload.Status, "solved")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for done broadcast")
	}
}

func TestHub_EventSinkForwardsToSubscribers(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobID := uuid.New()
	sub := newTestSubscriber(jobID)
	h.Register(sub)
	time.Sleep(20 * time.Millisecond)

	sink := h.EventSink(jobID)
	sink("Number of slots: 2")

	select {
	case data := <-sub.Send:
		var msg Message
		var payload EventPayload
		json.Unmarshal(data, &msg)
		json.Unmarshal(msg.Payload, &payload)
		if payload.Line != "Number of slots: 2" {
			t.Errorf("Line = %q, want %q", payload.Line, "Number of slots: 2")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sink-forwarded event")
	}
}

func TestHub_MultipleSubscribersSameJob(t *testing.T) {
	h := NewHub()
	go h.Run()

	jobID := uuid.New()
	sub1 := newTestSubscriber(jobID)
	sub2 := newTestSubscriber(jobID)
	h.Register(sub1)
	h.Register(sub2)
	time.Sleep(20 * time.Millisecond)

	h.BroadcastEvent(jobID, "fan-out to both tabs")

	for i, sub := range []*Subscriber{sub1, sub2} {
		select {
		case <-sub.Send:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the broadcast", i)
		}
	}
}
