// Package realtime fans auction events out to connected viewers. The hub
// tracks room membership and is decoupled from the websocket transport
// through the Conn interface.
package realtime

import (
	"log/slog"
	"sync"

	"quickbid/internal/pkg/clock"

	"github.com/google/uuid"
)

// Conn is one viewer connection. Send must not block; a connection that
// cannot keep up returns an error and is evicted.
type Conn interface {
	ID() string
	Send(msg Envelope) error
	Close()
}

type Hub struct {
	mu sync.RWMutex
	// auction id -> connection id -> conn
	rooms map[uuid.UUID]map[string]Conn
	// connection id -> rooms it joined
	memberships map[string]map[uuid.UUID]struct{}
	conns       map[string]Conn

	clock clock.Clock
	log   *slog.Logger
}

func NewHub(clk clock.Clock, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:       make(map[uuid.UUID]map[string]Conn),
		memberships: make(map[string]map[uuid.UUID]struct{}),
		conns:       make(map[string]Conn),
		clock:       clk,
		log:         log,
	}
}

// Register makes a connection addressable for unicast before it joins any
// room.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

// Join adds the connection to an auction's room.
func (h *Hub) Join(auctionID uuid.UUID, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
	room, ok := h.rooms[auctionID]
	if !ok {
		room = make(map[string]Conn)
		h.rooms[auctionID] = room
	}
	room[c.ID()] = c

	member, ok := h.memberships[c.ID()]
	if !ok {
		member = make(map[uuid.UUID]struct{})
		h.memberships[c.ID()] = member
	}
	member[auctionID] = struct{}{}
}

// Leave removes the connection from one room, garbage-collecting the room
// when it empties.
func (h *Hub) Leave(auctionID uuid.UUID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(auctionID, connID)
}

func (h *Hub) leaveLocked(auctionID uuid.UUID, connID string) {
	if room, ok := h.rooms[auctionID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, auctionID)
		}
	}
	if member, ok := h.memberships[connID]; ok {
		delete(member, auctionID)
		if len(member) == 0 {
			delete(h.memberships, connID)
		}
	}
}

// Unregister removes the connection from every room it joined and forgets
// it. Returns the rooms it was in so the caller can announce the departure
// after updating state.
func (h *Hub) Unregister(connID string) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	var left []uuid.UUID
	for auctionID := range h.memberships[connID] {
		left = append(left, auctionID)
	}
	for _, auctionID := range left {
		h.leaveLocked(auctionID, connID)
	}
	delete(h.conns, connID)
	return left
}

// Rooms reports which auctions the connection currently watches.
func (h *Hub) Rooms(connID string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []uuid.UUID
	for auctionID := range h.memberships[connID] {
		out = append(out, auctionID)
	}
	return out
}

// RoomSize returns the number of connections in an auction's room.
func (h *Hub) RoomSize(auctionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[auctionID])
}

// Broadcast delivers a message to every room member. Connections that cannot
// accept the message are evicted so one slow viewer cannot stall the room.
func (h *Hub) Broadcast(auctionID uuid.UUID, msgType string, payload any) {
	msg := Envelope{
		Type:      msgType,
		AuctionID: auctionID,
		Timestamp: h.clock.Now(),
		Payload:   payload,
	}

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.rooms[auctionID]))
	for _, c := range h.rooms[auctionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			h.log.Warn("evicting slow connection", "conn_id", c.ID(), "auction_id", auctionID)
			h.Unregister(c.ID())
			c.Close()
		}
	}
}

// Unicast delivers a message to a single connection only.
func (h *Hub) Unicast(connID string, msgType string, auctionID uuid.UUID, payload any) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	msg := Envelope{
		Type:      msgType,
		AuctionID: auctionID,
		Timestamp: h.clock.Now(),
		Payload:   payload,
	}
	if err := c.Send(msg); err != nil {
		h.Unregister(connID)
		c.Close()
	}
}
