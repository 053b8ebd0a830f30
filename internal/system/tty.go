//go:build linux

package system

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

// Prefer /dev/tty (active VT), fallback to /dev/tty0
var vtPaths = []string{"/dev/tty", "/dev/tty0"}

// Console takes the active virtual terminal away from the text console while
// the framebuffer sink is drawing, so the cursor and kernel messages stay off
// the panel image.
type Console struct {
	Logger logger
}

func (c Console) EnterGraphics() error {
	err := setKDMode(kdGraphics)
	c.log(err, "KD_GRAPHICS")
	if cerr := writeVT("\x1b[?25l"); cerr != nil {
		c.log(cerr, "hide cursor")
	}
	return err
}

func (c Console) Restore() error {
	if cerr := writeVT("\x1b[?25h"); cerr != nil {
		c.log(cerr, "show cursor")
	}
	err := setKDMode(kdText)
	c.log(err, "KD_TEXT")
	return err
}

func (c Console) log(err error, what string) {
	if c.Logger == nil {
		return
	}
	if err != nil {
		c.Logger.Errorf("tty", "%s failed: %v", what, err)
		return
	}
	c.Logger.Infof("tty", "%s ok", what)
}

func setKDMode(mode int) error {
	var lastErr error
	for _, p := range vtPaths {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			lastErr = fmt.Errorf("open %s: %w", p, err)
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		_ = unix.Close(fd)
		if err != nil {
			lastErr = fmt.Errorf("KDSETMODE %d on %s: %w", mode, p, err)
			continue
		}
		return nil
	}
	return lastErr
}

func writeVT(s string) error {
	var lastErr error
	for _, p := range vtPaths {
		f, err := os.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = f.WriteString(s)
		_ = f.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("write VT failed: %v", lastErr)
}
