// Package realtime fans out a running solve job's event log to WebSocket
// subscribers, keyed by job ID (SPEC_FULL.md §4.13).
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType identifies the kind of message sent to a subscriber.
type MessageType string

const (
	MsgEvent  MessageType = "event"
	MsgDone   MessageType = "done"
	MsgError  MessageType = "error"
)

// Message is the envelope written to every subscriber's connection.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventPayload carries one Event Log line as it's appended.
type EventPayload struct {
	Line string `json:"line"`
}

// DonePayload marks the end of a job's event stream.
type DonePayload struct {
	Status string `json:"status"`
}

// Subscriber is one WebSocket connection watching a job.
type Subscriber struct {
	ID    uuid.UUID
	JobID uuid.UUID
	Conn  *websocket.Conn
	Send  chan []byte
}

// Hub keeps a registry of subscribers per job ID and fans out broadcasts
// to them, grounded on the teacher's hub/register/broadcast loop.
type Hub struct {
	subscribers map[uuid.UUID]map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan jobBroadcast
	mutex       sync.RWMutex
}

type jobBroadcast struct {
	jobID   uuid.UUID
	msgType MessageType
	payload interface{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan jobBroadcast, 64),
	}
}

// Run drives the hub's event loop; call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mutex.Lock()
			if h.subscribers[sub.JobID] == nil {
				h.subscribers[sub.JobID] = make(map[*Subscriber]bool)
			}
			h.subscribers[sub.JobID][sub] = true
			h.mutex.Unlock()

		case sub := <-h.unregister:
			h.mutex.Lock()
			if subs, ok := h.subscribers[sub.JobID]; ok {
				if _, ok := subs[sub]; ok {
					delete(subs, sub)
					close(sub.Send)
				}
				if len(subs) == 0 {
					delete(h.subscribers, sub.JobID)
				}
			}
			h.mutex.Unlock()

		case b := <-h.broadcast:
			h.deliver(b)
		}
	}
}

func (h *Hub) deliver(b jobBroadcast) {
	data, err := json.Marshal(b.payload)
	if err != nil {
		log.Printf("realtime: marshaling payload: %v", err)
		return
	}
	msgData, err := json.Marshal(Message{Type: b.msgType, Payload: data})
	if err != nil {
		log.Printf("realtime: marshaling message: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for sub := range h.subscribers[b.jobID] {
		select {
		case sub.Send <- msgData:
		default:
			// subscriber's buffer is full; drop rather than block the job.
		}
	}
}

func (h *Hub) Register(sub *Subscriber)   { h.register <- sub }
func (h *Hub) Unregister(sub *Subscriber) { h.unregister <- sub }

// BroadcastEvent fans out one event log line to every subscriber of jobID.
func (h *Hub) BroadcastEvent(jobID uuid.UUID, line string) {
	h.broadcast <- jobBroadcast{jobID: jobID, msgType: MsgEvent, payload: EventPayload{Line: line}}
}

// BroadcastDone marks jobID's stream finished and tells subscribers why.
func (h *Hub) BroadcastDone(jobID uuid.UUID, status string) {
	h.broadcast <- jobBroadcast{jobID: jobID, msgType: MsgDone, payload: DonePayload{Status: status}}
}

// EventSink returns a func(string) suitable for csp.Config.EventSink that
// forwards every line to jobID's subscribers.
func (h *Hub) EventSink(jobID uuid.UUID) func(string) {
	return func(line string) {
		h.BroadcastEvent(jobID, line)
	}
}
