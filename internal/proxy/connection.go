package proxy

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// ConnectionType classifies the inbound request per spec §4.5. WebSocket
// and Sse connections authenticate once at upgrade; the gateway never
// re-checks the bearer token on the long-lived stream that follows.
type ConnectionType int

const (
	ConnectionHTTP ConnectionType = iota
	ConnectionWebSocket
	ConnectionSSE
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionWebSocket:
		return "websocket"
	case ConnectionSSE:
		return "sse"
	default:
		return "http"
	}
}

// detectConnectionType inspects Upgrade and Accept exactly as the
// reference gateway does: an Upgrade: websocket header wins outright,
// otherwise an Accept header naming text/event-stream marks SSE.
func detectConnectionType(r *http.Request) ConnectionType {
	if websocket.IsWebSocketUpgrade(r) {
		return ConnectionWebSocket
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return ConnectionSSE
	}
	return ConnectionHTTP
}
