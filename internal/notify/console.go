package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Console writes the new address as one line to a writer
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console reporter. A nil writer means stdout.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Name returns the reporter name
func (c *Console) Name() string { return "console" }

// Report prints the address
func (c *Console) Report(_ context.Context, p *Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.w, p.IP); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}
