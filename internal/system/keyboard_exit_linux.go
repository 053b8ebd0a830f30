//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	evKey = 0x01

	// Linux input-event-codes.h
	KeyEsc = 1
	KeyF4  = 62
)

// WatchExitKey watches evdev devices under /dev/input/event* and invokes onExit
// once when key is pressed. Without input devices it logs and returns.
func WatchExitKey(ctx context.Context, l logger, key uint16, onExit func()) {
	if onExit == nil {
		return
	}

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if l != nil {
			l.Infof("input", "no evdev devices, exit key disabled")
		}
		return
	}

	// input_event = timeval + u16 type + u16 code + s32 value
	tvSize := binary.Size(unix.Timeval{})
	var once sync.Once
	trigger := func() {
		once.Do(func() {
			if l != nil {
				l.Infof("input", "exit key %d pressed", key)
			}
			onExit()
		})
	}

	for _, path := range paths {
		go watchDevice(ctx, path, tvSize, key, trigger)
	}
}

func watchDevice(ctx context.Context, path string, tvSize int, key uint16, trigger func()) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	buf := make([]byte, 4096)
	for ctx.Err() == nil {
		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		if keyPressed(buf[:n], tvSize, key) {
			trigger()
			return
		}
	}
}

// keyPressed scans a run of input_event records for a press of key.
func keyPressed(buf []byte, tvSize int, key uint16) bool {
	size := tvSize + 8
	for off := 0; off+size <= len(buf); off += size {
		rec := buf[off : off+size]
		typ := binary.LittleEndian.Uint16(rec[tvSize:])
		code := binary.LittleEndian.Uint16(rec[tvSize+2:])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4:]))
		if typ == evKey && code == key && value == 1 {
			return true
		}
	}
	return false
}
