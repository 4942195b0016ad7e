package discordrpc

import (
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/engine"
)

// handshakeTimeout bounds how long the client waits for Discord to answer
// the initial handshake frame before giving up on a candidate transport.
const handshakeTimeout = 5 * time.Second

// maxPingsPerSend bounds how many op=3 PING frames the client will answer
// while waiting for the actual response to one SET_ACTIVITY write, so a
// misbehaving Discord build pinging in a tight loop cannot hang a send.
const maxPingsPerSend = 4

type transportKind int

const (
	transportNone transportKind = iota
	transportIPC
	transportWS
)

// dialIPCFn and dialWSFn are the IPC/websocket dialers used by
// tryConnectIPC/tryConnectWS, overridable in tests so a reconnect can be
// exercised against an in-memory transport instead of a real socket.
var (
	dialIPCFn = dialIPC
	dialWSFn  = dialWebSocket
)

// Client maintains a session with the local Discord client and delivers
// ActivityPayloads with at-most-once semantics per update. It is driven
// from a single goroutine — the supervisor's RPC loop — and is not safe
// for concurrent use.
type Client struct {
	clientID string
	log      *logrus.Entry

	kind transportKind
	ipc  io.ReadWriteCloser
	ws   *websocket.Conn

	backoff     *backoff
	nextRetryAt time.Time

	// lastActivity is the most recently successfully sent activity, or nil
	// if nothing has been sent yet or the last successful send was a Clear.
	// ensureConnected resends it the moment a reconnect succeeds, so a
	// disconnect that happens to land during a long throttled stretch of
	// steady playback does not leave Discord showing stale/no presence
	// until the next unrelated change.
	lastActivity *engine.ActivityPayload
}

// New creates a Client for the given Discord application ID.
func New(clientID string, log *logrus.Entry) *Client {
	return &Client{clientID: clientID, log: log, backoff: newBackoff()}
}

// UpdateClientID resets the session when the configured application ID
// changes under a config reload; the next SetActivity/Clear call
// reconnects and re-handshakes with the new ID.
func (c *Client) UpdateClientID(clientID string) {
	if clientID == c.clientID {
		return
	}
	c.clientID = clientID
	c.closeTransport()
	c.backoff.reset()
	c.nextRetryAt = time.Time{}
}

// Connected reports whether a transport is currently live.
func (c *Client) Connected() bool {
	return c.kind != transportNone
}

// SetActivity encodes and sends payload, connecting first if necessary.
func (c *Client) SetActivity(payload engine.ActivityPayload) error {
	body, err := buildSetActivity(payload)
	if err != nil {
		return err
	}
	if err := c.send(body); err != nil {
		return err
	}
	sent := payload
	c.lastActivity = &sent
	return nil
}

// Clear sends activity: null, removing the user's Rich Presence.
func (c *Client) Clear() error {
	body, err := buildClearActivity()
	if err != nil {
		return err
	}
	if err := c.send(body); err != nil {
		return err
	}
	c.lastActivity = nil
	return nil
}

// Close tears down any live transport. It does not send a final Clear —
// the caller sends one explicitly during graceful shutdown before calling
// Close.
func (c *Client) Close() error {
	c.closeTransport()
	return nil
}

func (c *Client) send(body []byte) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	var sendErr error
	switch c.kind {
	case transportIPC:
		sendErr = c.sendIPC(body)
	case transportWS:
		sendErr = c.sendWS(body)
	}

	if sendErr != nil {
		c.log.WithError(sendErr).Warn("discord rpc send failed, will reconnect")
		c.closeTransport()
		c.scheduleBackoff()
		return sendErr
	}
	return nil
}

func (c *Client) sendIPC(body []byte) error {
	if err := writeFrame(c.ipc, OpFrame, body); err != nil {
		return err
	}
	for attempt := 0; attempt < maxPingsPerSend; attempt++ {
		op, raw, err := readFrameWithTimeout(c.ipc, handshakeTimeout)
		if err != nil {
			return err
		}
		if op == OpPing {
			if err := writeFrame(c.ipc, OpPong, raw); err != nil {
				return err
			}
			continue
		}
		if verr := validateResponse(raw); verr != nil {
			c.log.WithError(verr).Debug("discord rpc returned an error frame")
		}
		return nil
	}
	return fmt.Errorf("discord ipc: too many ping frames without a response")
}

func (c *Client) sendWS(body []byte) error {
	if err := c.ws.WriteMessage(websocket.TextMessage, body); err != nil {
		return err
	}
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return err
	}
	if verr := validateResponse(raw); verr != nil {
		c.log.WithError(verr).Debug("discord rpc returned an error frame")
	}
	return nil
}

// EnsureConnected (re)establishes the transport if it is not already live.
// It is safe to call on every poll cycle: when already connected it returns
// immediately, and when a reconnect backoff is active it fails fast without
// retrying early. The supervisor calls this independently of whether the
// engine produced a Decision this tick, so a connection that drops during a
// long throttled stretch of unchanged playback still gets a chance to
// recover and resend the current activity without waiting for the next
// state change.
func (c *Client) EnsureConnected() error {
	return c.ensureConnected()
}

func (c *Client) ensureConnected() error {
	if c.Connected() {
		return nil
	}
	if time.Now().Before(c.nextRetryAt) {
		return fmt.Errorf("discord reconnect backoff active")
	}

	if err := c.tryConnectIPC(); err == nil {
		c.backoff.reset()
		c.log.Debug("connected to discord rpc over ipc")
		c.resendLastActivity()
		return nil
	}
	if err := c.tryConnectWS(); err == nil {
		c.backoff.reset()
		c.log.Debug("connected to discord rpc over websocket")
		c.resendLastActivity()
		return nil
	}

	c.scheduleBackoff()
	return fmt.Errorf("unable to connect to local discord rpc")
}

// resendLastActivity pushes the last successfully sent activity again right
// after a reconnect, satisfying the requirement that the first thing Discord
// sees post-reconnect reflects current state rather than nothing at all.
// It sends directly over the freshly established transport instead of
// going through send()/ensureConnected() again, since the transport is
// already known live at the point this is called.
func (c *Client) resendLastActivity() {
	if c.lastActivity == nil {
		return
	}
	body, err := buildSetActivity(*c.lastActivity)
	if err != nil {
		c.log.WithError(err).Warn("failed to re-encode activity for reconnect resend")
		return
	}

	var sendErr error
	switch c.kind {
	case transportIPC:
		sendErr = c.sendIPC(body)
	case transportWS:
		sendErr = c.sendWS(body)
	}
	if sendErr != nil {
		c.log.WithError(sendErr).Warn("failed to resend activity after reconnect")
		c.closeTransport()
		c.scheduleBackoff()
	}
}

func (c *Client) tryConnectIPC() error {
	conn, err := dialIPCFn()
	if err != nil {
		return err
	}
	if err := writeFrame(conn, OpHandshake, buildHandshake(c.clientID)); err != nil {
		conn.Close()
		return err
	}
	op, raw, err := readFrameWithTimeout(conn, handshakeTimeout)
	if err != nil {
		conn.Close()
		return err
	}
	if err := validateHandshakeResponse(op, raw); err != nil {
		conn.Close()
		return err
	}
	c.ipc = conn
	c.kind = transportIPC
	return nil
}

func (c *Client) tryConnectWS() error {
	conn, err := dialWSFn(c.clientID)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, buildHandshake(c.clientID)); err != nil {
		conn.Close()
		return err
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return err
	}
	if err := validateHandshakeResponse(OpFrame, raw); err != nil {
		conn.Close()
		return err
	}
	c.ws = conn
	c.kind = transportWS
	return nil
}

func (c *Client) closeTransport() {
	switch c.kind {
	case transportIPC:
		if c.ipc != nil {
			c.ipc.Close()
		}
		c.ipc = nil
	case transportWS:
		if c.ws != nil {
			c.ws.Close()
		}
		c.ws = nil
	}
	c.kind = transportNone
}

func (c *Client) scheduleBackoff() {
	c.nextRetryAt = time.Now().Add(c.backoff.next())
}
