package assist

import "strings"

type Mode string

const (
	ModeText       Mode = "text"
	ModeDiagram    Mode = "diagram"
	ModeNavigation Mode = "navigation"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeText, ModeDiagram, ModeNavigation}

// ParseMode trims and lower-cases s and reports whether it names a
// supported mode. Unknown values come back normalized as well.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeText, ModeDiagram, ModeNavigation:
		return m, true
	}
	return m, false
}

func (m Mode) String() string { return string(m) }
