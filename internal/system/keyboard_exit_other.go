//go:build !linux

package system

import "context"

const (
	KeyEsc = 1
	KeyF4  = 62
)

func WatchExitKey(ctx context.Context, l logger, key uint16, onExit func()) {}
