//go:build !windows

package discordrpc

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

const ipcSlots = 10

const dialTimeout = 2 * time.Second

// dialIPC tries discord-ipc-0..9 under each candidate runtime directory, in
// priority order: $XDG_RUNTIME_DIR, $TMPDIR, /tmp.
func dialIPC() (io.ReadWriteCloser, error) {
	dirs := candidateDirs()
	var lastErr error
	for slot := 0; slot < ipcSlots; slot++ {
		name := fmt.Sprintf("discord-ipc-%d", slot)
		for _, dir := range dirs {
			conn, err := net.DialTimeout("unix", filepath.Join(dir, name), dialTimeout)
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no discord ipc socket found")
	}
	return nil, fmt.Errorf("dial discord ipc: %w", lastErr)
}

func candidateDirs() []string {
	var dirs []string
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		dirs = append(dirs, v)
	}
	if v := os.Getenv("TMPDIR"); v != "" {
		dirs = append(dirs, v)
	}
	dirs = append(dirs, "/tmp")
	return dirs
}
