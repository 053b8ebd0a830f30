//go:build !linux

package system

import "errors"

type Console struct {
	Logger logger
}

func (Console) EnterGraphics() error { return errors.New("console modes need linux") }
func (Console) Restore() error       { return nil }
