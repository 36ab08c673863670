/*
 * This file is part of Skool4Free (https://github.com/Rolandjg/skool4free).
 * Copyright (C) 2025 Skool4Free
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package lecture

import (
	"sync"

	"github.com/Rolandjg/skool4free/internal/events"
)

// Session tracks one lecture's position. The cursor counts revealed
// slides: 0 means nothing revealed yet, len(deck) means every slide has
// been shown and the lecture is complete. The current slide is always
// cursor-1.
type Session struct {
	ID                string
	Deck              *Deck
	CourseName        string
	CourseDescription string
	Model             string
	Voice             string

	mu            sync.Mutex
	cursor        int
	completedOnce bool
}

// NewSession creates a session positioned before the first slide.
func NewSession(deck *Deck, courseName, courseDescription, model, voice string) *Session {
	return &Session{
		ID:                events.NewSessionID(),
		Deck:              deck,
		CourseName:        courseName,
		CourseDescription: courseDescription,
		Model:             model,
		Voice:             voice,
	}
}

// Advance moves the cursor forward one slide. It returns the index of the
// newly revealed slide and true, or -1 and false when the deck is already
// exhausted.
func (s *Session) Advance() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= s.Deck.Len() {
		return -1, false
	}
	index := s.cursor
	s.cursor++
	return index, true
}

// Current returns the index of the most recently revealed slide, or -1
// when nothing has been revealed.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor - 1
}

// Completed reports whether every slide has been revealed.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= s.Deck.Len()
}

// MarkCompleted returns true the first time it is called after the deck is
// exhausted, so completion is reported exactly once.
func (s *Session) MarkCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < s.Deck.Len() || s.completedOnce {
		return false
	}
	s.completedOnce = true
	return true
}
