package handle

import (
	"context"
	"time"

	"visual-assist/api/internal/assist"
)

const defaultTimeout = 30 * time.Second

// Describer turns an image into a sentence for the given mode.
type Describer interface {
	Describe(ctx context.Context, image []byte, mode assist.Mode) (string, error)
}

type Handle struct {
	assistant Describer
	timeout   time.Duration
}

func New(assistant Describer, timeout time.Duration) *Handle {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handle{
		assistant: assistant,
		timeout:   timeout,
	}
}
