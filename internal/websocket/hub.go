package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "care_advisor_broadcasts"

// Lifecycle is told when sessions start and end. Hooks run on the
// connection's goroutine after the Hub lock is released.
type Lifecycle interface {
	SessionStarted(ctx context.Context, sessionID string)
	SessionEnded(ctx context.Context, sessionID string, final stage.Stage, snap profile.Snapshot)
}

// SessionInfo describes a connected session.
type SessionInfo struct {
	ID          string
	Stage       stage.Stage
	ConnectedAt time.Time
}

type sessionEntry struct {
	// serializes message handling for one session; guards state and closed
	mu     sync.Mutex
	state  *stage.Session
	client *Client
	closed bool

	// copies readable under Hub.mu while a message is in flight
	stage       stage.Stage
	connectedAt time.Time
}

// Hub routes messages from connected sessions to the stage machine and
// delivers replies and broadcasts back to them.
type Hub struct {
	machine  *stage.Machine
	profiles *profile.Store
	hooks    []Lifecycle

	sessions map[string]*sessionEntry
	mu       sync.RWMutex

	// orders Register/Unregister for the same session id
	lifecycle keyedMutex

	// Redis connection for cross-instance broadcasts
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(machine *stage.Machine, profiles *profile.Store, rdb *redis.Client, log logger.ILogger, hooks ...Lifecycle) *Hub {
	return &Hub{
		machine:    machine,
		profiles:   profiles,
		hooks:      hooks,
		sessions:   make(map[string]*sessionEntry),
		lifecycle:  keyedMutex{locks: make(map[string]*refMutex)},
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Register binds client to its session id, starting a fresh session in the
// initial stage. A session already bound to that id is ended and replaced;
// a message still in flight for it finishes before the profile is reset.
func (h *Hub) Register(ctx context.Context, client *Client) {
	entry := &sessionEntry{
		state:       stage.NewSession(client.SessionID),
		client:      client,
		stage:       stage.Initial,
		connectedAt: time.Now().UTC(),
	}

	unlock := h.lifecycle.lock(client.SessionID)
	defer unlock()

	h.mu.Lock()
	old, replaced := h.sessions[client.SessionID]
	if replaced {
		delete(h.sessions, client.SessionID)
		close(old.client.Send)
	}
	h.mu.Unlock()

	if replaced {
		h.logger.Warn("Hub", "Session id reused, replacing previous connection", map[string]interface{}{"session_id": client.SessionID})
		h.endSession(ctx, client.SessionID, old.retire())
	}
	h.profiles.Reset(client.SessionID)

	h.mu.Lock()
	h.sessions[client.SessionID] = entry
	h.mu.Unlock()

	h.logger.Info("Hub", "Session connected", map[string]interface{}{"session_id": client.SessionID})
	for _, hook := range h.hooks {
		hook.SessionStarted(ctx, client.SessionID)
	}
}

// Unregister ends the client's session. It is a no-op when the session has
// since been taken over by another connection.
func (h *Hub) Unregister(ctx context.Context, client *Client) {
	unlock := h.lifecycle.lock(client.SessionID)
	defer unlock()

	h.mu.Lock()
	entry, ok := h.sessions[client.SessionID]
	if !ok || entry.client != client {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, client.SessionID)
	close(client.Send)
	h.mu.Unlock()

	final := entry.retire()
	h.endSession(ctx, client.SessionID, final)
	h.profiles.Delete(client.SessionID)
	h.logger.Info("Hub", "Session disconnected", map[string]interface{}{"session_id": client.SessionID, "stage": final})
}

// retire waits for the message in flight, if any, and stops the entry from
// handling more. It returns the final stage.
func (e *sessionEntry) retire() stage.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return e.state.Stage
}

func (h *Hub) endSession(ctx context.Context, sessionID string, final stage.Stage) {
	snap := h.profiles.Snapshot(sessionID)
	for _, hook := range h.hooks {
		hook.SessionEnded(ctx, sessionID, final, snap)
	}
}

// Route handles one raw inbound frame and returns the encoded reply.
// Messages for the same session are handled one at a time.
func (h *Hub) Route(ctx context.Context, sessionID string, raw []byte) []byte {
	h.mu.RLock()
	entry, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return stage.Encode(stage.NewError(stage.CodeNotFound, "session not found: "+sessionID))
	}
	return h.handle(ctx, entry, sessionID, raw)
}

// handle runs raw against entry. An entry retired by a reconnect or
// disconnect answers not_found.
func (h *Hub) handle(ctx context.Context, entry *sessionEntry, sessionID string, raw []byte) []byte {
	in, err := stage.DecodeInbound(raw)
	if err != nil {
		h.logger.Warn("Hub", "Rejected inbound message", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return stage.Encode(stage.NewError(stage.CodeValidation, err.Error()))
	}

	entry.mu.Lock()
	if entry.closed {
		entry.mu.Unlock()
		return stage.Encode(stage.NewError(stage.CodeNotFound, "session not found: "+sessionID))
	}
	reply := h.machine.Handle(ctx, entry.state, in)
	current := entry.state.Stage
	entry.mu.Unlock()

	h.mu.Lock()
	entry.stage = current
	h.mu.Unlock()

	return stage.Encode(reply)
}

// routeFrom handles a frame read from client. Frames from a connection that
// no longer owns its session are dropped.
func (h *Hub) routeFrom(ctx context.Context, client *Client, raw []byte) ([]byte, bool) {
	h.mu.RLock()
	entry, ok := h.sessions[client.SessionID]
	h.mu.RUnlock()
	if !ok || entry.client != client {
		return nil, false
	}
	return h.handle(ctx, entry, client.SessionID, raw), true
}

// Deliver queues data for client if it still owns its session. A full
// buffer drops the frame.
func (h *Hub) Deliver(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.sessions[client.SessionID]
	if !ok || entry.client != client {
		return false
	}
	return h.trySend(client, data)
}

func (h *Hub) trySend(client *Client, data []byte) bool {
	select {
	case client.Send <- data:
		return true
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"session_id": client.SessionID})
		return false
	}
}

// Broadcast sends an operator notice to every session on this instance and
// to the other instances through redis.
func (h *Hub) Broadcast(title, message string) {
	data := stage.Encode(stage.BroadcastReply{Type: stage.TypeBroadcast, Title: title, Message: message})
	delivered := h.deliverAll(data)
	h.logger.Info("Hub", "Broadcast delivered", map[string]interface{}{"sessions": delivered})

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish broadcast to redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverAll(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, entry := range h.sessions {
		if h.trySend(entry.client, data) {
			n++
		}
	}
	return n
}

// Sessions lists connected sessions, oldest first.
func (h *Hub) Sessions() []SessionInfo {
	h.mu.RLock()
	out := make([]SessionInfo, 0, len(h.sessions))
	for id, entry := range h.sessions {
		out = append(out, SessionInfo{ID: id, Stage: entry.stage, ConnectedAt: entry.connectedAt})
	}
	h.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].ConnectedAt.Equal(out[b].ConnectedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].ConnectedAt.Before(out[b].ConnectedAt)
	})
	return out
}

func (h *Hub) Session(id string) (SessionInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.sessions[id]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{ID: id, Stage: entry.stage, ConnectedAt: entry.connectedAt}, true
}

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Run relays broadcasts published by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliverAll(payload.Message)
		}
	}
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
