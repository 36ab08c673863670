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

// Package lecture implements the slide lecture pipeline: deck state,
// session cursor, background prefetch and the synchronous fallback path.
package lecture

import (
	"fmt"
	"sync"
)

// slide holds the materialized fields for one slide. Each field starts
// unset and transitions to a value at most conceptually once; the prefetch
// worker and the synchronous fallback may both compute a field, in which
// case the later write simply overwrites an equivalent value.
type slide struct {
	imagePath    string
	content      string
	hasContent   bool
	narration    string
	hasNarration bool
	audio        []byte
}

// SlideSnapshot is a point-in-time copy of one slide's state.
type SlideSnapshot struct {
	Index        int
	ImagePath    string
	Content      string
	HasContent   bool
	Narration    string
	HasNarration bool
	Audio        []byte
}

// HasAudio reports whether synthesized audio is cached for the slide.
func (s SlideSnapshot) HasAudio() bool {
	return len(s.Audio) > 0
}

// Deck is the shared, mutable state for one lecture's slides. All access
// goes through the lock so the prefetch goroutine and request handlers can
// read and write concurrently.
type Deck struct {
	mu     sync.RWMutex
	slides []slide
}

// NewDeck creates a deck from rendered slide image paths.
func NewDeck(imagePaths []string) *Deck {
	slides := make([]slide, len(imagePaths))
	for i, path := range imagePaths {
		slides[i] = slide{imagePath: path}
	}
	return &Deck{slides: slides}
}

// Len returns the number of slides in the deck.
func (d *Deck) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slides)
}

// Slide returns a snapshot of the slide at index.
func (d *Deck) Slide(index int) (SlideSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if index < 0 || index >= len(d.slides) {
		return SlideSnapshot{}, errSlideOutOfRange(index, len(d.slides))
	}

	s := d.slides[index]
	snap := SlideSnapshot{
		Index:        index,
		ImagePath:    s.imagePath,
		Content:      s.content,
		HasContent:   s.hasContent,
		Narration:    s.narration,
		HasNarration: s.hasNarration,
	}
	if len(s.audio) > 0 {
		snap.Audio = make([]byte, len(s.audio))
		copy(snap.Audio, s.audio)
	}
	return snap, nil
}

// SetContent records the extracted content for a slide.
func (d *Deck) SetContent(index int, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.slides) {
		return errSlideOutOfRange(index, len(d.slides))
	}
	d.slides[index].content = content
	d.slides[index].hasContent = true
	return nil
}

// SetNarration records the generated narration for a slide. The slide must
// already have content: narration is derived from it.
func (d *Deck) SetNarration(index int, narration string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.slides) {
		return errSlideOutOfRange(index, len(d.slides))
	}
	if !d.slides[index].hasContent {
		return fmt.Errorf("slide %d has no content to narrate", index)
	}
	d.slides[index].narration = narration
	d.slides[index].hasNarration = true
	return nil
}

// SetAudio records the synthesized audio for a slide. The slide must
// already have narration.
func (d *Deck) SetAudio(index int, audio []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.slides) {
		return errSlideOutOfRange(index, len(d.slides))
	}
	if !d.slides[index].hasNarration {
		return fmt.Errorf("slide %d has no narration for audio", index)
	}
	stored := make([]byte, len(audio))
	copy(stored, audio)
	d.slides[index].audio = stored
	return nil
}
