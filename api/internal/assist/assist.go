package assist

import (
	"context"
	"fmt"
	"strings"
)

const (
	NoTextMessage        = "No text detected."
	NoLabelsMessage      = "I cannot identify the elements in this diagram."
	ClearPathMessage     = "The path ahead looks clear."
	InvalidModeMessage   = "Invalid assistance mode selected."
	DefaultDiagramLabels = 5
)

type Assistant struct {
	eng       Engine
	maxLabels int
}

type Option func(*Assistant)

// WithMaxLabels caps how many labels a diagram description names.
func WithMaxLabels(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxLabels = n
		}
	}
}

func New(eng Engine, opts ...Option) *Assistant {
	a := &Assistant{eng: eng, maxLabels: DefaultDiagramLabels}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Assistant) EngineName() string { return a.eng.Name() }

// Describe runs the engine operation selected by mode and renders its
// result as one short sentence.
func (a *Assistant) Describe(ctx context.Context, image []byte, mode Mode) (string, error) {
	switch mode {
	case ModeText:
		txt, err := a.eng.DetectText(ctx, image)
		if err != nil {
			return "", fmt.Errorf("%s: text detection: %w", a.eng.Name(), err)
		}
		return FormatText(txt), nil
	case ModeDiagram:
		labels, err := a.eng.DetectLabels(ctx, image, a.maxLabels)
		if err != nil {
			return "", fmt.Errorf("%s: label detection: %w", a.eng.Name(), err)
		}
		return FormatDiagram(labels, a.maxLabels), nil
	case ModeNavigation:
		objects, err := a.eng.LocalizeObjects(ctx, image)
		if err != nil {
			return "", fmt.Errorf("%s: object localization: %w", a.eng.Name(), err)
		}
		return FormatNavigation(objects), nil
	default:
		return InvalidModeMessage, nil
	}
}

func FormatText(txt string) string {
	if t := strings.TrimSpace(txt); t != "" {
		return t
	}
	return NoTextMessage
}

func FormatDiagram(labels []string, max int) string {
	labels = nonEmpty(labels)
	if len(labels) == 0 {
		return NoLabelsMessage
	}
	if max > 0 && len(labels) > max {
		labels = labels[:max]
	}
	return "This diagram contains: " + strings.Join(labels, ", ") + "."
}

func FormatNavigation(objects []string) string {
	objects = unique(nonEmpty(objects))
	if len(objects) == 0 {
		return ClearPathMessage
	}
	return "I see the following in your path: " + strings.Join(objects, ", ") + "."
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// unique keeps the first occurrence of each name.
func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
