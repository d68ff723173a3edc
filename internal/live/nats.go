package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const subjectPrefix = "cupmaker.tournaments"

func Subject(tournamentID uuid.UUID) string {
	return subjectPrefix + "." + tournamentID.String()
}

// Connect dials NATS and keeps reconnecting for as long as the process lives
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("cupmaker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.Error("NATS error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Publisher sends updates to NATS so that every instance of the app can pass
// them on to its own WebSocket clients
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) TournamentUpdated(_ context.Context, tournamentID uuid.UUID) {
	payload, err := json.Marshal(NewUpdate(tournamentID))
	if err != nil {
		slog.Error("Failed to encode update", "tournament_id", tournamentID, "error", err)
		return
	}
	if err := p.nc.Publish(Subject(tournamentID), payload); err != nil {
		slog.Error("Failed to publish update", "tournament_id", tournamentID, "error", err)
	}
}

// Relay feeds updates published by any instance into the local hub
type Relay struct {
	hub *Hub
	sub *nats.Subscription
}

func StartRelay(nc *nats.Conn, hub *Hub) (*Relay, error) {
	r := &Relay{hub: hub}
	sub, err := nc.Subscribe(subjectPrefix+".*", r.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s.*: %w", subjectPrefix, err)
	}
	r.sub = sub
	return r, nil
}

func (r *Relay) handle(msg *nats.Msg) {
	var update Update
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		slog.Warn("Dropping malformed update", "subject", msg.Subject, "error", err)
		return
	}
	if update.Type != UpdateMessageType || update.TournamentID == uuid.Nil {
		slog.Warn("Dropping unexpected message", "subject", msg.Subject, "type", update.Type)
		return
	}
	r.hub.Broadcast(update)
}

func (r *Relay) Stop() error {
	return r.sub.Unsubscribe()
}
