// Package sse fans out server-sent events to the browsers watching a document.
package sse

import (
	"fmt"
	"strings"
	"sync"
)

const (
	EventConnected = "connected"
	EventSaved     = "saved"
)

type Client struct {
	Msg        chan string
	DocumentID string
}

func NewClient(documentID string) *Client {
	return &Client{
		Msg:        make(chan string, 8),
		DocumentID: documentID,
	}
}

type Clients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewClients() *Clients {
	return &Clients{
		clients: make(map[*Client]bool),
	}
}

func (s *Clients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// Delete unregisters client and closes its channel. Deleting twice is a no-op.
func (s *Clients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clients[client] {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *Clients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast queues an event for every client of documentID. Slow clients
// miss events instead of blocking the sender.
func (s *Clients) Broadcast(documentID, event, data string) {
	msg := Format(event, data)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.DocumentID == documentID {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

// Format renders one event in the text/event-stream wire format.
func Format(event, data string) string {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}
