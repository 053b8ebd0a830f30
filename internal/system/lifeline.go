package system

import (
	"context"
	"fmt"
)

const lifelineScript = "lifeline.sh"

// PowerHold keeps the board's power latch engaged while the process runs.
type PowerHold struct {
	Runner Runner
	Logger logger
}

func (p PowerHold) On(ctx context.Context) error  { return p.set(ctx, "on") }
func (p PowerHold) Off(ctx context.Context) error { return p.set(ctx, "off") }

func (p PowerHold) set(ctx context.Context, mode string) error {
	if p.Runner == nil {
		return nil
	}
	_, stderr, err := p.Runner.Run(ctx, lifelineScript, mode)
	if err != nil {
		return fmt.Errorf("lifeline %s failed: %v: %s", mode, err, stderr)
	}
	if p.Logger != nil {
		p.Logger.Infof("power", "lifeline %s", mode)
	}
	return nil
}
