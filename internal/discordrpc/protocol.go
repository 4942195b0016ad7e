// Package discordrpc implements the local Discord IPC protocol: frame
// encoding, handshake, SET_ACTIVITY delivery, and reconnection with full
// jitter exponential backoff. See
// original_source/crates/discord_rpc/src/lib.rs for the reference protocol
// this generalizes to a Unix-socket/named-pipe/websocket transport trio.
package discordrpc

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Opcodes per the Discord local RPC frame protocol.
const (
	OpHandshake int32 = 0
	OpFrame     int32 = 1
	OpClose     int32 = 2
	OpPing      int32 = 3
	OpPong      int32 = 4
)

// maxFrameBytes guards against a corrupt or hostile length prefix causing an
// unbounded allocation.
const maxFrameBytes = 16 << 20

// writeFrame writes the 8-byte little-endian [op][len] header followed by
// payload, identical across the Unix socket and named pipe transports.
func writeFrame(w io.Writer, op int32, payload []byte) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(op))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write discord ipc frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write discord ipc frame payload: %w", err)
	}
	return nil
}

// readFrame reads one frame from r, blocking until the full header and
// payload arrive or r returns an error.
func readFrame(r io.Reader) (int32, []byte, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("read discord ipc frame header: %w", err)
	}
	op := int32(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameBytes {
		return 0, nil, fmt.Errorf("discord ipc frame too large: %d bytes", length)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("read discord ipc frame payload: %w", err)
		}
	}
	return op, payload, nil
}

// readFrameWithTimeout bounds a frame read that might otherwise block
// forever (handshake, or a connection Discord never answers). The
// background goroutine is left to exit once r eventually errors or
// returns data; the result channel is buffered so it never leaks blocked.
func readFrameWithTimeout(r io.Reader, timeout time.Duration) (int32, []byte, error) {
	type result struct {
		op      int32
		payload []byte
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		op, payload, err := readFrame(r)
		ch <- result{op, payload, err}
	}()
	select {
	case res := <-ch:
		return res.op, res.payload, res.err
	case <-time.After(timeout):
		return 0, nil, fmt.Errorf("discord ipc read timed out after %s", timeout)
	}
}
