package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/server/middleware"
	redisstore "github.com/gosuda/replayd/internal/store/redis"
)

// Subscriber delivers pub/sub messages. *redis.Client satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// SessionAuthorizer resolves a session the caller may read.
type SessionAuthorizer interface {
	AuthorizeSession(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Session, error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	subscriber Subscriber
	authz      SessionAuthorizer
}

// NewHub creates a new WebSocket hub. A nil subscriber disables streaming.
func NewHub(subscriber Subscriber, authz SessionAuthorizer) *Hub {
	return &Hub{subscriber: subscriber, authz: authz}
}

// ServeArtifacts streams artifact state changes for one session.
// Subscribes to Redis channel "session:<sessionID>:artifacts".
func (h *Hub) ServeArtifacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.authz.AuthorizeSession(r.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "access to session denied", http.StatusForbidden)
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("websocket authorize")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if h.subscriber == nil {
		http.Error(w, "artifact stream unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.subscriber.Subscribe(ctx, redisstore.ArtifactChannel(s.ID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			out, relay := filterArtifactEvent(msg, s.ID)
			if !relay {
				continue
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, out); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// filterArtifactEvent drops malformed notices and notices for other sessions.
func filterArtifactEvent(msg []byte, sessionID string) ([]byte, bool) {
	var ev ArtifactEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("websocket: malformed artifact event")
		return nil, false
	}
	if ev.SessionID == "" {
		ev.SessionID = sessionID
	}
	if ev.SessionID != sessionID || ev.Kind == "" {
		return nil, false
	}

	out, err := json.Marshal(ev)
	if err != nil {
		return nil, false
	}
	return out, true
}
