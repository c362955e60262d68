// Package hub fans frames out to websocket clients. The dashboard runs one
// hub per stream; each client has its own buffered queue drained by a
// single writer goroutine.
package hub

import "github.com/gofiber/websocket/v2"

// Message is one frame queued for every client.
type Message struct {
	// Kind is websocket.TextMessage or websocket.BinaryMessage.
	Kind int
	Data []byte
}

// Text wraps pre-encoded JSON.
func Text(data []byte) Message {
	return Message{Kind: websocket.TextMessage, Data: data}
}

// Binary wraps raw bytes such as PCM audio.
func Binary(data []byte) Message {
	return Message{Kind: websocket.BinaryMessage, Data: data}
}
