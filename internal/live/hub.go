package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const UpdateMessageType = "tournament-update"

// Update is what subscribers receive after a tournament changed. They are
// expected to refetch the tournament rather than patch local state.
type Update struct {
	Type         string    `json:"type"`
	TournamentID uuid.UUID `json:"tournamentId"`
}

func NewUpdate(tournamentID uuid.UUID) Update {
	return Update{Type: UpdateMessageType, TournamentID: tournamentID}
}

// Hub keeps one room of WebSocket clients per tournament
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run owns room membership until ctx is done, then drops every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			slog.Debug("Client joined room", "tournament_id", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.rooms {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// submit hands a client to Run, or reports false once Run has returned
func (h *Hub) submit(ch chan *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-h.done:
		return false
	}
}

// remove expects h.mu to be held
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	client.close()
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
		slog.Debug("Room closed", "tournament_id", client.room)
	}
}

// RoomSize is the number of clients watching a tournament
func (h *Hub) RoomSize(tournamentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tournamentID])
}

// Broadcast sends update to everyone in its tournament's room. Slow clients
// with a full buffer miss the message instead of blocking the rest.
func (h *Hub) Broadcast(update Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[update.TournamentID]
	if !ok {
		return
	}

	payload, err := json.Marshal(update)
	if err != nil {
		slog.Error("Failed to encode update", "tournament_id", update.TournamentID, "error", err)
		return
	}

	for client := range clients {
		if !client.enqueue(payload) {
			slog.Warn("Client send buffer full, skipping update", "tournament_id", update.TournamentID)
		}
	}
}

func (h *Hub) TournamentUpdated(_ context.Context, tournamentID uuid.UUID) {
	h.Broadcast(NewUpdate(tournamentID))
}
