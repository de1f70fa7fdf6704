// Package websocket pushes post updates to socket.io clients watching a post.
package websocket

import (
	"fmt"
	"strings"
	"sync"

	"dnastudio/core"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Events emitted to watchers.
const (
	EventPostUpdated = "post-updated"
	EventPostDeleted = "post-deleted"
)

// Hub tracks which sockets watch which post and fans updates out to them.
type Hub struct {
	srv *socketio.Server

	mu       sync.RWMutex
	watchers map[string]int
}

func roomFor(postID string) socketio.Room {
	return socketio.Room("post:" + postID)
}

// NewHub creates the socket.io server. An empty origins list, or one with a
// wildcard pattern, allows any origin.
func NewHub(origins []string) *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	var origin any = "*"
	if len(origins) > 0 && !hasWildcard(origins) {
		list := make([]any, 0, len(origins))
		for _, o := range origins {
			list = append(list, o)
		}
		origin = list
	}
	opts.SetCors(&types.Cors{
		Origin:      origin,
		Credentials: true,
	})

	h := &Hub{
		srv:      socketio.NewServer(nil, opts),
		watchers: make(map[string]int),
	}
	h.srv.On("connection", h.onConnection)
	return h
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.Contains(o, "*") {
			return true
		}
	}
	return false
}

// Server returns the underlying socket.io server for mounting.
func (h *Hub) Server() *socketio.Server {
	return h.srv
}

func (h *Hub) Close() {
	h.srv.Close(nil)
}

// Watchers returns a snapshot of watcher counts per post.
func (h *Hub) Watchers() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]int, len(h.watchers))
	for k, v := range h.watchers {
		out[k] = v
	}
	return out
}

func (h *Hub) setWatchers(postID string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 {
		delete(h.watchers, postID)
		return
	}
	h.watchers[postID] = n
}

// PostUpdated tells every socket watching the post about event.
func (h *Hub) PostUpdated(postID, event string, post *core.GeneratedPost) {
	payload := map[string]any{
		"postId": postID,
		"event":  event,
	}
	if post != nil {
		payload["post"] = post
	}
	name := EventPostUpdated
	if post == nil {
		name = EventPostDeleted
	}
	if err := h.srv.To(roomFor(postID)).Emit(name, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"post_id": postID,
			"event":   event,
			"error":   err,
		}).Warn("Failed to notify post watchers")
	}
}

func (h *Hub) onConnection(clients ...any) {
	socket, ok := clients[0].(*socketio.Socket)
	if !ok {
		return
	}
	log := logrus.WithField("socket", socket.Id())
	log.Debug("Socket connected")

	socket.On("join-post", func(datas ...any) {
		ack, postID, err := parsePostArgs(datas)
		if err != nil {
			reply(socket, ack, "join-post-ack", errorPayload(err), err)
			return
		}
		room := roomFor(postID)
		socket.Join(room)
		h.srv.In(room).FetchSockets()(func(sockets []*socketio.RemoteSocket, fetchErr error) {
			if fetchErr != nil {
				reply(socket, ack, "join-post-ack", errorPayload(fetchErr), fetchErr)
				return
			}
			h.setWatchers(postID, len(sockets))
			log.WithFields(logrus.Fields{"post_id": postID, "watchers": len(sockets)}).Debug("Socket joined post")
			reply(socket, ack, "join-post-ack", map[string]any{
				"status":   "ok",
				"postId":   postID,
				"watchers": len(sockets),
			}, nil)
		})
	})

	socket.On("leave-post", func(datas ...any) {
		ack, postID, err := parsePostArgs(datas)
		if err != nil {
			reply(socket, ack, "leave-post-ack", errorPayload(err), err)
			return
		}
		socket.Leave(roomFor(postID))
		h.recount(postID, "")
		reply(socket, ack, "leave-post-ack", map[string]any{"status": "ok", "postId": postID}, nil)
	})

	socket.On("disconnecting", func(...any) {
		for _, room := range socket.Rooms().Keys() {
			if postID, ok := strings.CutPrefix(string(room), "post:"); ok {
				h.recount(postID, socket.Id())
			}
		}
	})

	socket.On("disconnect", func(...any) {
		socket.RemoveAllListeners("")
		log.Debug("Socket disconnected")
	})
}

// recount refreshes the watcher count of a post, ignoring the socket that is
// on its way out.
func (h *Hub) recount(postID string, leaving socketio.SocketId) {
	h.srv.In(roomFor(postID)).FetchSockets()(func(sockets []*socketio.RemoteSocket, err error) {
		if err != nil {
			return
		}
		n := 0
		for _, s := range sockets {
			if s.Id() != leaving {
				n++
			}
		}
		h.setWatchers(postID, n)
	})
}

func parsePostArgs(datas []any) (ackInvoker, string, error) {
	ack, args := extractAck(datas)
	if len(args) == 0 {
		return ack, "", fmt.Errorf("post id is required")
	}
	postID, ok := args[0].(string)
	if !ok || strings.TrimSpace(postID) == "" {
		return ack, "", fmt.Errorf("invalid post id")
	}
	return ack, postID, nil
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
	}
}
