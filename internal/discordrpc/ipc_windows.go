//go:build windows

package discordrpc

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/windows"
)

const ipcSlots = 10

// dialIPC opens \\.\pipe\discord-ipc-0..9, the Windows equivalent of the
// Unix domain socket slots. CreateFile on a named pipe yields a HANDLE that
// os.NewFile wraps as an *os.File implementing io.ReadWriteCloser directly.
func dialIPC() (io.ReadWriteCloser, error) {
	var lastErr error
	for slot := 0; slot < ipcSlots; slot++ {
		path := fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, slot)
		pathPtr, err := windows.UTF16PtrFromString(path)
		if err != nil {
			lastErr = err
			continue
		}
		handle, err := windows.CreateFile(
			pathPtr,
			windows.GENERIC_READ|windows.GENERIC_WRITE,
			0,
			nil,
			windows.OPEN_EXISTING,
			windows.FILE_ATTRIBUTE_NORMAL,
			0,
		)
		if err != nil {
			lastErr = err
			continue
		}
		return os.NewFile(uintptr(handle), path), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no discord ipc pipe found")
	}
	return nil, fmt.Errorf("dial discord ipc: %w", lastErr)
}
