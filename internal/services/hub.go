package services

import (
	"encoding/json"
	"sync"

	"naksha-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage is the envelope pushed over the realtime feed.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub tracks one WebSocket connection per authenticated user and pushes
// analysis events to the owning user.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a connection for a user, closing any previous one.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection if it is still the registered one.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.connections[userID]; ok && current == conn {
		current.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a user's connection, if any. A write failure
// drops the connection.
func (h *WSHub) SendToUser(userID string, message WSMessage) {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to marshal WebSocket message")
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send WebSocket message")
		h.Unregister(userID, conn)
	}
}

// NotifyAnalysis implements AnalysisNotifier: pushes a freshly persisted
// analysis record to its owner.
func (h *WSHub) NotifyAnalysis(userID string, rec *models.AnalysisResult) {
	h.SendToUser(userID, WSMessage{
		Type: "analysis_completed",
		Data: rec,
	})
}

// IsOnline reports whether a user has an open connection.
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}
