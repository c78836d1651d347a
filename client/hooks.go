package client

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback run by Start or Stop.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run after all components started.
func (c *Client) OnStart(hooks ...Hook) {
	c.onStart = append(c.onStart, hooks...)
}

// OnStop registers hooks that run before components are stopped.
func (c *Client) OnStop(hooks ...Hook) {
	c.onStop = append(c.onStop, hooks...)
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
