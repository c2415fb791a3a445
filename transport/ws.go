// Package transport upgrades HTTP connections to WebSocket and routes
// messages between clients and the session hub.
package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The demo server is read by a browser client served from any origin
	// during local development; a deployed instance should replace this
	// with an allowlist check against r.Header.Get("Origin").
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSender adapts a *websocket.Conn to session.Sender, serializing writes
// since gorilla/websocket forbids concurrent writers on one connection.
type wsSender struct {
	conn *websocket.Conn
	mu   chan struct{}
}

func newWSSender(conn *websocket.Conn) *wsSender {
	s := &wsSender{conn: conn, mu: make(chan struct{}, 1)}
	s.mu <- struct{}{}
	return s
}

func (s *wsSender) Send(msg session.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	<-s.mu
	defer func() { s.mu <- struct{}{} }()
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *wsSender) Close() error       { return s.conn.Close() }
func (s *wsSender) RemoteAddr() string { return s.conn.RemoteAddr().String() }

// Handler upgrades /ws/{docID} connections and feeds messages to a Hub.
type Handler struct {
	hub *session.Hub
	log *zap.Logger
}

// NewHandler creates a handler backed by hub.
func NewHandler(hub *session.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, log: log}
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/ws/{docID}", h.serveWS)
	r.HandleFunc("/health", h.serveHealth)
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// joinPayload is the MsgJoin payload clients send immediately after
// connecting, identifying the author for attribution (spec.md §4.8
// author/color resolution, crdt.PermanentUserData).
type joinPayload struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	docID := mux.Vars(r)["docID"]
	if strings.TrimSpace(docID) == "" {
		docID = "default"
	}

	author := crdt.User{ID: conn.RemoteAddr().String(), Name: "anonymous"}
	sess := session.NewSession(docID, author, newWSSender(conn))

	h.hub.Join(sess)
	defer h.hub.Leave(sess)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.String("session", sess.ID), zap.Error(err))
			}
			return
		}

		var msg session.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Warn("bad message json", zap.Error(err))
			continue
		}
		msg.DocID = docID

		if msg.Type == session.MsgJoin {
			var p joinPayload
			if err := json.Unmarshal(msg.Payload, &p); err == nil && p.AuthorID != "" {
				sess.Author = crdt.User{ID: p.AuthorID, Name: p.AuthorName}
				h.hub.Join(sess)
			}
			continue
		}
		h.hub.Dispatch(sess, msg)
	}
}
