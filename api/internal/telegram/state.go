package telegram

import (
	"sync"

	"visual-assist/api/internal/assist"
)

// modeStore remembers the mode each chat picked; chats start in text mode.
type modeStore struct {
	m sync.Map // chatID -> assist.Mode
}

func (s *modeStore) get(chatID int64) assist.Mode {
	if v, ok := s.m.Load(chatID); ok {
		if m, _ := v.(assist.Mode); m != "" {
			return m
		}
	}
	return assist.ModeText
}

func (s *modeStore) set(chatID int64, m assist.Mode) { s.m.Store(chatID, m) }
