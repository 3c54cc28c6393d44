//go:build windows

package progress

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableANSI turns on virtual terminal processing so the spinner's escape
// sequences render in cmd.exe and older PowerShell hosts.
func enableANSI(f *os.File) {
	handle := windows.Handle(f.Fd())
	var mode uint32

	if err := windows.GetConsoleMode(handle, &mode); err == nil {
		_ = windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	}
}
