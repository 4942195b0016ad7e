package discordrpc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsPorts are the local ports Discord's renderer-facing RPC websocket binds
// to, tried in order.
var wsPorts = [...]int{6463, 6464, 6465, 6466, 6467, 6468, 6469, 6470, 6471, 6472}

var wsDialer = websocket.Dialer{HandshakeTimeout: dialTimeoutWS}

const dialTimeoutWS = 5 * time.Second

// dialWebSocket tries every known RPC port, required when no local IPC
// socket or named pipe is reachable (e.g. Discord's web/Electron bridge
// exposes only this surface on some platforms).
func dialWebSocket(clientID string) (*websocket.Conn, error) {
	header := http.Header{"Origin": []string{"https://discord.com"}}
	var lastErr error
	for _, port := range wsPorts {
		url := fmt.Sprintf("ws://127.0.0.1:%d/?v=1&client_id=%s&encoding=json", port, clientID)
		conn, _, err := wsDialer.Dial(url, header)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no discord rpc websocket found")
	}
	return nil, fmt.Errorf("dial discord rpc websocket: %w", lastErr)
}
