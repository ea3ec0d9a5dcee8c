package assist

import (
	"context"
	"errors"
	"strings"
)

// Engine is an external vision backend. Implementations only fetch raw
// results; turning them into sentences is done by Assistant.
type Engine interface {
	Name() string
	// DetectText returns the full detected text, or "" when there is none.
	DetectText(ctx context.Context, image []byte) (string, error)
	// DetectLabels returns up to max label descriptions in the backend's order.
	DetectLabels(ctx context.Context, image []byte, max int) ([]string, error)
	// LocalizeObjects returns the names of localized objects; names may repeat.
	LocalizeObjects(ctx context.Context, image []byte) ([]string, error)
	Close() error
}

var ErrUnknownEngine = errors.New("unknown vision engine; use 'gcv' or 'gemini'")

type Engines struct {
	Vision Engine
	Gemini Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gcv", "vision", "":
		eng = e.Vision
	case "gemini":
		eng = e.Gemini
	default:
		return nil, ErrUnknownEngine
	}
	if eng == nil {
		return nil, errors.New("vision engine " + name + " is not configured")
	}
	return eng, nil
}

// Close releases every configured engine.
func (e *Engines) Close() error {
	var errs []error
	for _, eng := range []Engine{e.Vision, e.Gemini} {
		if eng != nil {
			errs = append(errs, eng.Close())
		}
	}
	return errors.Join(errs...)
}
