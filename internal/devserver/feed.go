package devserver

import (
	"wisatamap/internal/backend"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// changes upgrades the request and registers the connection for broadcasts
func (s *Server) changes(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("upgrade_error", "err", err)
		return
	}

	s.subsMu.Lock()
	s.subs[conn] = struct{}{}
	s.subsMu.Unlock()
	s.log.Debug("feed_subscribed", "remote", conn.RemoteAddr().String())

	// Drain client frames so close messages are processed
	go func() {
		defer s.unsubscribe(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) unsubscribe(conn *websocket.Conn) {
	s.subsMu.Lock()
	delete(s.subs, conn)
	s.subsMu.Unlock()
	conn.Close()
}

// Subscribers returns the number of connected feed clients
func (s *Server) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Server) broadcast(msg backend.ChangeMessage) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for conn := range s.subs {
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Warn("feed_write_error", "err", err)
			delete(s.subs, conn)
			go conn.Close()
		}
	}
}

// Close disconnects every feed subscriber
func (s *Server) Close() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for conn := range s.subs {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		delete(s.subs, conn)
	}
}
