package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"wisatamap/internal/debug"

	"github.com/gorilla/websocket"
)

// Watcher follows the backend change feed over a websocket
type Watcher struct {
	conn      *websocket.Conn
	msgChan   chan ChangeMessage
	errChan   chan error
	done      chan struct{}
	closeOnce sync.Once
}

// Watch connects to the /changes feed of the backend
func (c *Client) Watch(ctx context.Context) (*Watcher, error) {
	u, err := url.Parse(c.baseURL + PathChanges)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}

	w := &Watcher{
		conn:    conn,
		msgChan: make(chan ChangeMessage, 100),
		errChan: make(chan error, 10),
		done:    make(chan struct{}),
	}
	go w.readLoop()
	return w, nil
}

// Changes returns a channel of change notifications
func (w *Watcher) Changes() <-chan ChangeMessage {
	return w.msgChan
}

// Errors returns a channel of errors encountered while reading
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Done is closed when the read loop has stopped
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close closes the connection and the channels
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		// Closing the connection stops readLoop
		w.conn.Close()
		<-w.done

		close(w.msgChan)
		close(w.errChan)
	})
	return nil
}

// readLoop decodes messages until the connection fails
func (w *Watcher) readLoop() {
	defer close(w.done)

	for {
		_, message, err := w.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !strings.Contains(err.Error(), "use of closed network connection") {
				select {
				case w.errChan <- fmt.Errorf("error reading change feed: %w", err):
				default:
				}
			}
			return
		}

		var msg ChangeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			// Skip malformed messages
			debug.Log("watch_bad_message", "err", err)
			continue
		}

		select {
		case w.msgChan <- msg:
		default:
			debug.Log("watch_dropped", "type", msg.Type, "name", msg.Name)
		}
	}
}
