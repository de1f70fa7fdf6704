package websocket

import (
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type ackInvoker func(err error, payload map[string]any)

// extractAck splits a trailing acknowledgement callback off the event
// arguments. Clients send it as the library's func([]any, error); the
// other shapes are accepted for in-process callers.
func extractAck(datas []any) (ackInvoker, []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	rest := datas[:len(datas)-1]

	switch cb := datas[len(datas)-1].(type) {
	case func([]any, error):
		return func(err error, payload map[string]any) { cb([]any{payload}, err) }, rest
	case func(error, map[string]any):
		return cb, rest
	case func(map[string]any):
		return func(_ error, payload map[string]any) { cb(payload) }, rest
	}
	return nil, datas
}

// reply answers the ack if there is one and emits event with the same
// payload for clients that listen instead.
func reply(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, err error) {
	if ack != nil {
		ack(err, payload)
	}
	_ = socket.Emit(event, payload)
}
