package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/runebook/runebook/internal/sandbox"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // single-host app, served from the same origin
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Runtime string `json:"runtime"`
	Lesson  string `json:"lesson"`
}

// wsOutgoing is a message to the client. Type is one of "started", "stdout",
// "stderr", "result", or "error".
type wsOutgoing struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Content string           `json:"content,omitempty"`
	Result  *executeResponse `json:"result,omitempty"`
}

func (s *Server) handleExecuteWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Mutex for thread-safe writes to the WebSocket connection: the two
	// stream drains deliver chunks concurrently.
	var wsMu sync.Mutex

	// Read loop: one run at a time per connection, serialized by the loop
	// itself.
	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Printf("websocket read error: %v", err)
			return
		}

		if msg.Type != "run" {
			wsWriteJSON(conn, &wsMu, wsOutgoing{Type: "error", Content: "invalid message"})
			continue
		}
		if msg.Lesson != "" {
			if _, ok := s.catalog.Get(msg.Lesson); !ok {
				wsWriteJSON(conn, &wsMu, wsOutgoing{Type: "error", Content: "lesson not found"})
				continue
			}
		}

		s.streamRun(r, conn, &wsMu, msg)
	}
}

// wsObserver forwards output chunks to the client as they arrive. The two
// stream drains run concurrently, so writes share the connection mutex.
type wsObserver struct {
	mu   *sync.Mutex
	conn *websocket.Conn
}

func (o *wsObserver) Chunk(stream sandbox.Stream, p []byte) {
	wsWriteJSON(o.conn, o.mu, wsOutgoing{Type: string(stream), Content: string(p)})
}

func (s *Server) streamRun(r *http.Request, conn *websocket.Conn, wsMu *sync.Mutex, msg wsIncoming) {
	execID := uuid.New().String()
	wsWriteJSON(conn, wsMu, wsOutgoing{Type: "started", ID: execID})

	outcome, err := s.runSubmission(r.Context(), sandbox.Submission{
		Code:     msg.Code,
		Runtime:  msg.Runtime,
		Observer: &wsObserver{mu: wsMu, conn: conn},
	})
	if err != nil {
		wsWriteJSON(conn, wsMu, wsOutgoing{Type: "error", ID: execID, Content: "server is at capacity, try again"})
		return
	}

	if msg.Lesson != "" {
		s.recordRun(r.Context(), msg.Lesson, msg.Code, outcome)
	}

	resp := outcomeResponse(outcome)
	wsWriteJSON(conn, wsMu, wsOutgoing{Type: "result", ID: execID, Result: &resp})
}

func wsWriteJSON(conn *websocket.Conn, mu *sync.Mutex, v wsOutgoing) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
