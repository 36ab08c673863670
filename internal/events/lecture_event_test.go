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

package events

import (
	"errors"
	"strings"
	"testing"
)

func TestNewLectureEvent(t *testing.T) {
	event := NewLectureEvent("session-1", KindSlideRevealed)

	if event.UUID == "" {
		t.Error("expected generated UUID")
	}
	if event.SessionID != "session-1" {
		t.Errorf("SessionID = %q", event.SessionID)
	}
	if event.Kind != KindSlideRevealed {
		t.Errorf("Kind = %q", event.Kind)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if event.SlideIndex != -1 {
		t.Errorf("SlideIndex = %d, want -1 until set", event.SlideIndex)
	}
	if !event.Success {
		t.Error("new events should default to success")
	}

	if err := event.IsValid(); err != nil {
		t.Errorf("IsValid() = %v", err)
	}
}

func TestLectureEvent_UniqueUUIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		event := NewLectureEvent("session-1", KindAudioPlayed)
		if seen[event.UUID] {
			t.Fatalf("duplicate UUID generated: %s", event.UUID)
		}
		seen[event.UUID] = true
	}
}

func TestLectureEvent_Setters(t *testing.T) {
	event := NewLectureEvent("session-1", KindQuestionAnswered)

	event.SetSlide(3, "Algebra")
	event.SetQuestion("what is a matrix?")
	event.SetResponse("A matrix is a grid of numbers.")
	event.SetCacheHit(true)

	if event.SlideIndex != 3 || event.CourseName != "Algebra" {
		t.Errorf("slide fields = (%d, %q)", event.SlideIndex, event.CourseName)
	}
	if event.Transcription != "what is a matrix?" {
		t.Errorf("Transcription = %q", event.Transcription)
	}
	if event.ResponseText == "" || event.ProcessingTime < 0 {
		t.Errorf("response fields = (%q, %d)", event.ResponseText, event.ProcessingTime)
	}
	if !event.CacheHit {
		t.Error("CacheHit should be true")
	}
}

func TestLectureEvent_SetError(t *testing.T) {
	event := NewLectureEvent("session-1", KindAudioPlayed)
	event.SetError(errors.New("tts unavailable"))

	if event.Success {
		t.Error("Success should be false after SetError")
	}
	if event.ErrorMessage != "tts unavailable" {
		t.Errorf("ErrorMessage = %q", event.ErrorMessage)
	}
}

func TestLectureEvent_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LectureEvent)
		want   string
	}{
		{"missing UUID", func(e *LectureEvent) { e.UUID = "" }, "UUID"},
		{"missing session", func(e *LectureEvent) { e.SessionID = "" }, "sessionID"},
		{"missing kind", func(e *LectureEvent) { e.Kind = "" }, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewLectureEvent("session-1", KindSlideRevealed)
			tt.mutate(event)

			err := event.IsValid()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
