package ui

import (
	"sync"
)

// ConsoleID is the pseudo room showing command output.
const ConsoleID uint64 = 0

const maxLogLines = 2000

type roomLog struct {
	lines  []string
	unread int
}

// screenState holds everything rendered by the chat screen. It is written
// from network goroutines and read by the draw loop.
type screenState struct {
	mu       sync.Mutex
	logs     map[uint64]*roomLog
	selected uint64
}

func newScreenState() *screenState {
	return &screenState{logs: map[uint64]*roomLog{ConsoleID: {}}}
}

func (s *screenState) logFor(room uint64) *roomLog {
	l, ok := s.logs[room]
	if !ok {
		l = &roomLog{}
		s.logs[room] = l
	}
	return l
}

func (s *screenState) append(room uint64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.logFor(room)
	l.lines = append(l.lines, text)
	if over := len(l.lines) - maxLogLines; over > 0 {
		l.lines = append(l.lines[:0:0], l.lines[over:]...)
	}
	if room != s.selected {
		l.unread++
	}
}

func (s *screenState) selectRoom(room uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = room
	s.logFor(room).unread = 0
}

func (s *screenState) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *screenState) lines(room uint64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[room]
	if !ok {
		return nil
	}
	return append([]string(nil), l.lines...)
}

func (s *screenState) unread(room uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[room]; ok {
		return l.unread
	}
	return 0
}

// keepSelection falls back to the console when the selected room is no
// longer joined.
func (s *screenState) keepSelection(joined map[uint64]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != ConsoleID && !joined[s.selected] {
		s.selected = ConsoleID
	}
}
