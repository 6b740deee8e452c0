package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// ErrConnClosed is returned for requests pending when the socket closes.
var ErrConnClosed = errors.New("backend connection closed")

type wsRequest struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

type wsReply struct {
	ID string `json:"id"`
	envelope
}

// WSInvoker multiplexes commands over one websocket. Requests carry a ULID and
// replies are matched by it, so they may arrive in any order.
type WSInvoker struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan wsReply
	err     error

	done chan struct{}
}

var _ Invoker = (*WSInvoker)(nil)

// DialWS opens a websocket to url and starts its read loop.
func DialWS(ctx context.Context, url string, header http.Header) (*WSInvoker, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", url, err)
	}
	return NewWSInvoker(conn), nil
}

// NewWSInvoker takes ownership of conn.
func NewWSInvoker(conn *websocket.Conn) *WSInvoker {
	w := &WSInvoker{
		conn:    conn,
		pending: make(map[string]chan wsReply),
		done:    make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WSInvoker) Invoke(ctx context.Context, command string, args any, dest any) error {
	payload, err := encodeArgs(command, args)
	if err != nil {
		return err
	}
	req := wsRequest{ID: ulid.Make().String(), Command: command, Args: payload}
	ch := make(chan wsReply, 1)

	w.mu.Lock()
	if w.err != nil {
		err := w.err
		w.mu.Unlock()
		return err
	}
	w.pending[req.ID] = ch
	w.mu.Unlock()
	defer w.forget(req.ID)

	w.writeMu.Lock()
	err = w.conn.WriteJSON(req)
	w.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s: %w", command, err)
	}

	select {
	case reply := <-ch:
		return reply.into(command, dest)
	case <-w.done:
		return w.closeErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WSInvoker) forget(id string) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

func (w *WSInvoker) closeErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *WSInvoker) readLoop() {
	defer close(w.done)
	for {
		var reply wsReply
		if err := w.conn.ReadJSON(&reply); err != nil {
			w.mu.Lock()
			if w.err == nil {
				w.err = fmt.Errorf("%w: %v", ErrConnClosed, err)
			}
			w.mu.Unlock()
			return
		}
		w.mu.Lock()
		ch, ok := w.pending[reply.ID]
		delete(w.pending, reply.ID)
		w.mu.Unlock()
		if ok {
			ch <- reply
		}
	}
}

// Close shuts the socket and waits for the read loop to exit.
func (w *WSInvoker) Close() error {
	w.writeMu.Lock()
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.writeMu.Unlock()
	err := w.conn.Close()
	<-w.done
	return err
}
