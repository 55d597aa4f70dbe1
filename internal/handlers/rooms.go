package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

const (
	defaultDialogueResponse = "..."
	wsWriteTimeout          = 10 * time.Second
)

// RoomEvents publishes and subscribes to per-room activity.
type RoomEvents interface {
	PublishRoomEvent(ctx context.Context, e room.Event) error
	SubscribeRoom(ctx context.Context, roomID string) *redis.PubSub
}

type CreateRoomRequest struct {
	Name       string `json:"name"`
	NPCID      string `json:"npc_id,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type InteractRequest struct {
	NPCID      string `json:"npc_id,omitempty"`
	DialogueID string `json:"dialogue_id"`
}

type InteractResponse struct {
	Response string `json:"response"`
	NPCName  string `json:"npc_name"`
}

type RoomResponse struct {
	Room         *room.Room `json:"room"`
	NPC          *npc.NPC   `json:"npc,omitempty"`
	Participants []string   `json:"participants"`
}

type RoomListResponse struct {
	Rooms []*room.Room `json:"rooms"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// RoomHandler manages rooms, their chat and NPC interactions.
type RoomHandler struct {
	storage    storage.Storage
	presence   *room.Presence
	limiter    *moderation.Limiter
	validator  *moderation.Validator
	events     RoomEvents
	reputation ReputationQueue
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func NewRoomHandler(s storage.Storage, presence *room.Presence, limiter *moderation.Limiter, validator *moderation.Validator, logger *slog.Logger) *RoomHandler {
	if validator == nil {
		validator = moderation.NewValidator(nil)
	}
	if presence == nil {
		presence = room.NewPresence()
	}
	return &RoomHandler{
		storage:   s,
		presence:  presence,
		limiter:   limiter,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// WithEvents enables room event publishing and the websocket stream.
func (h *RoomHandler) WithEvents(e RoomEvents) *RoomHandler {
	h.events = e
	return h
}

// WithReputation sets the queue reputation updates are sent to.
func (h *RoomHandler) WithReputation(q ReputationQueue) *RoomHandler {
	h.reputation = q
	return h
}

// Register mounts:
//
//	POST /v1/rooms
//	GET  /v1/rooms
//	GET  /v1/rooms/{id}
//	POST /v1/rooms/{id}/join
//	POST /v1/rooms/{id}/leave
//	POST /v1/rooms/{id}/chat
//	POST /v1/rooms/{id}/interact
//	POST /v1/rooms/{id}/close
//	GET  /v1/rooms/{id}/ws
func (h *RoomHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/rooms", h.handleCreate)
	mux.HandleFunc("GET /v1/rooms", h.handleList)
	mux.HandleFunc("GET /v1/rooms/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/rooms/{id}/join", h.handleJoin)
	mux.HandleFunc("POST /v1/rooms/{id}/leave", h.handleLeave)
	mux.HandleFunc("POST /v1/rooms/{id}/chat", h.handleChat)
	mux.HandleFunc("POST /v1/rooms/{id}/interact", h.handleInteract)
	mux.HandleFunc("POST /v1/rooms/{id}/close", h.handleClose)
	mux.HandleFunc("GET /v1/rooms/{id}/ws", h.handleStream)
}

func (h *RoomHandler) publish(ctx context.Context, e room.Event) {
	if h.events == nil {
		return
	}
	if err := h.events.PublishRoomEvent(ctx, e); err != nil {
		h.logger.Warn("Failed to publish room event", "room_id", e.RoomID, "type", e.Type, "error", err)
	}
}

// mutate runs fn on a locked, freshly loaded room and saves it when fn succeeds.
func (h *RoomHandler) mutate(ctx context.Context, roomID string, fn func(*room.Room) error) (*room.Room, error) {
	var out *room.Room
	err := withLock(ctx, h.storage, storage.RoomLockKey(roomID), func() error {
		rm, err := h.storage.LoadRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if rm == nil {
			return errNotFound
		}
		if err := fn(rm); err != nil {
			return err
		}
		out = rm
		return h.storage.SaveRoom(ctx, rm)
	})
	return out, err
}

func (h *RoomHandler) writeRoomError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
	case errors.Is(err, room.ErrRoomClosed), errors.Is(err, room.ErrRoomFull):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	case errors.Is(err, room.ErrNotCreator):
		writeError(w, h.logger, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("Room operation failed", "action", action, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to "+action)
	}
}

func (h *RoomHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !checkLimit(w, h.logger, h.limiter, userID, moderation.ActionRoomCreate) {
		return
	}
	if req.NPCID != "" {
		n, err := h.storage.LoadNPC(r.Context(), req.NPCID)
		if err != nil {
			h.writeRoomError(w, err, "create room")
			return
		}
		if n == nil {
			writeError(w, h.logger, http.StatusNotFound, "NPC not found")
			return
		}
	}

	rm, err := room.New(userID, req.Name, req.NPCID, req.MaxPlayers)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.storage.SaveRoom(r.Context(), rm); err != nil {
		h.writeRoomError(w, err, "create room")
		return
	}
	h.presence.Add(rm.ID, userID)

	h.logger.Info("Room created", "room_id", rm.ID, "creator_id", userID)
	writeJSON(w, h.logger, http.StatusCreated, RoomResponse{Room: rm, Participants: h.presence.Participants(rm.ID)})
}

func (h *RoomHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.storage.ListRooms(r.Context())
	if err != nil {
		h.writeRoomError(w, err, "list rooms")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, RoomListResponse{
		Rooms: room.Joinable(rooms, queryLimit(r, room.DefaultListLimit, 100)),
	})
}

func (h *RoomHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rm, err := h.storage.LoadRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeRoomError(w, err, "load room")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}

	resp := RoomResponse{Room: rm, Participants: h.presence.Participants(rm.ID)}
	if rm.NPCID != "" {
		n, err := h.storage.LoadNPC(r.Context(), rm.NPCID)
		if err != nil {
			h.logger.Warn("Failed to load room NPC", "room_id", rm.ID, "npc_id", rm.NPCID, "error", err)
		}
		resp.NPC = n
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *RoomHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	rm, err := h.mutate(r.Context(), r.PathValue("id"), func(rm *room.Room) error {
		return rm.Join(userID)
	})
	if err != nil {
		h.writeRoomError(w, err, "join room")
		return
	}
	h.presence.Add(rm.ID, userID)
	h.publish(r.Context(), room.Event{Type: room.EventJoin, RoomID: rm.ID, UserID: userID})
	writeJSON(w, h.logger, http.StatusOK, RoomResponse{Room: rm, Participants: h.presence.Participants(rm.ID)})
}

func (h *RoomHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	roomID := r.PathValue("id")
	rm, err := h.storage.LoadRoom(r.Context(), roomID)
	if err != nil {
		h.writeRoomError(w, err, "leave room")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}
	h.presence.Remove(roomID, userID)
	h.publish(r.Context(), room.Event{Type: room.EventLeave, RoomID: roomID, UserID: userID})
	writeJSON(w, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

func (h *RoomHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !checkLimit(w, h.logger, h.limiter, userID, moderation.ActionChatMessage) {
		return
	}
	if err := h.validator.ValidateMessage(req.Message); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var entry room.ChatEntry
	rm, err := h.mutate(r.Context(), r.PathValue("id"), func(rm *room.Room) error {
		entry = rm.AddChat(userID, req.Message)
		return nil
	})
	if err != nil {
		h.writeRoomError(w, err, "send message")
		return
	}
	h.publish(r.Context(), room.Event{Type: room.EventChat, RoomID: rm.ID, UserID: userID, Data: entry})
	writeJSON(w, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

func (h *RoomHandler) handleInteract(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req InteractRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	roomID := r.PathValue("id")
	npcID := req.NPCID
	if npcID == "" {
		rm, err := h.storage.LoadRoom(ctx, roomID)
		if err != nil {
			h.writeRoomError(w, err, "interact")
			return
		}
		if rm == nil {
			writeError(w, h.logger, http.StatusNotFound, "Room not found")
			return
		}
		npcID = rm.NPCID
	}

	n, err := h.storage.LoadNPC(ctx, npcID)
	if err != nil {
		h.writeRoomError(w, err, "interact")
		return
	}
	if n == nil {
		writeError(w, h.logger, http.StatusNotFound, "NPC not found")
		return
	}

	reply, found := n.Reply(req.DialogueID)
	if !found {
		reply = defaultDialogueResponse
	}
	var in room.Interaction
	if _, err := h.mutate(ctx, roomID, func(rm *room.Room) error {
		in = rm.AddInteraction(userID, n.ID, req.DialogueID, reply)
		return nil
	}); err != nil {
		h.writeRoomError(w, err, "interact")
		return
	}

	// The room holds the interaction now; count it against the NPC.
	err = withLock(ctx, h.storage, storage.NPCLockKey(n.ID), func() error {
		cur, err := h.storage.LoadNPC(ctx, n.ID)
		if err != nil || cur == nil {
			return err
		}
		cur.Interactions++
		return h.storage.SaveNPC(ctx, cur)
	})
	if err != nil {
		h.writeRoomError(w, err, "interact")
		return
	}

	h.publish(ctx, room.Event{Type: room.EventInteraction, RoomID: roomID, UserID: userID, Data: in})
	enqueueReputation(ctx, h.reputation, h.logger, n.CreatorID, "npc_interaction")
	writeJSON(w, h.logger, http.StatusOK, InteractResponse{Response: reply, NPCName: n.Name})
}

func (h *RoomHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	rm, err := h.mutate(r.Context(), r.PathValue("id"), func(rm *room.Room) error {
		return rm.Close(userID)
	})
	if err != nil {
		h.writeRoomError(w, err, "close room")
		return
	}
	h.presence.Clear(rm.ID)
	h.publish(r.Context(), room.Event{Type: room.EventClosed, RoomID: rm.ID, UserID: userID})
	writeJSON(w, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

// handleStream relays a room's events to a websocket until either side hangs up.
func (h *RoomHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Room events are not available")
		return
	}
	roomID := r.PathValue("id")
	rm, err := h.storage.LoadRoom(r.Context(), roomID)
	if err != nil {
		h.writeRoomError(w, err, "open stream")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pubsub := h.events.SubscribeRoom(ctx, roomID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("Failed to subscribe to room events", "room_id", roomID, "error", err)
		return
	}

	// The read loop only detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("Room stream opened", "room_id", roomID, "remote_addr", r.RemoteAddr)
	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Room stream closed", "room_id", roomID)
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Warn("Failed to write room event", "room_id", roomID, "error", err)
				return
			}
		}
	}
}
