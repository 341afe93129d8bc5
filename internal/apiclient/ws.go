package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dreamware/expedition/internal/game"
)

// CommandConn is a websocket command channel to the server. Commands are
// sent one at a time and each waits for its reply.
type CommandConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes Do
	next int
}

// DialCommands opens the command channel. base is the server's HTTP base
// URL; the scheme is switched to ws or wss.
func DialCommands(ctx context.Context, base string) (*CommandConn, error) {
	u := "ws" + strings.TrimPrefix(base, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %d: %w", u, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &CommandConn{conn: conn}, nil
}

// Do sends cmd and decodes the reply's data into out, which may be nil.
// A failed command returns an *APIError.
func (c *CommandConn) Do(cmd Command, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	if cmd.ID == "" {
		cmd.ID = fmt.Sprintf("c%d", c.next)
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		return err
	}

	var reply Reply
	if err := c.conn.ReadJSON(&reply); err != nil {
		return err
	}
	if reply.ID != cmd.ID {
		return fmt.Errorf("reply %q for command %q", reply.ID, cmd.ID)
	}
	if !reply.OK {
		e := reply.Error
		if e == nil {
			e = &ErrorResponse{Code: game.CodeInternal}
		}
		return &APIError{Code: e.Code, Message: e.Message}
	}
	if out == nil || len(reply.Data) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Data, out)
}

// Close sends a close frame and closes the connection.
func (c *CommandConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
