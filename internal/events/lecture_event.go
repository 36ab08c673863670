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
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// Lecture event kinds
const (
	KindLectureStarted   = "lecture_started"
	KindSlideRevealed    = "slide_revealed"
	KindAudioPlayed      = "audio_played"
	KindQuestionAnswered = "question_answered"
	KindLectureCompleted = "lecture_completed"
)

// LectureEvent represents one step of a lecture with full traceability
type LectureEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	SessionID string    `json:"session_id" db:"session_id"`
	Kind      string    `json:"kind" db:"kind"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Lecture position
	SlideIndex int    `json:"slide_index" db:"slide_index"`
	CourseName string `json:"course_name" db:"course_name"`

	// Processing results
	Transcription string `json:"transcription,omitempty" db:"transcription"`
	ResponseText  string `json:"response_text,omitempty" db:"response_text"`
	CacheHit      bool   `json:"cache_hit" db:"cache_hit"`

	// Outcome
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewLectureEvent creates a new LectureEvent with generated UUID and current timestamp
func NewLectureEvent(sessionID, kind string) *LectureEvent {
	return &LectureEvent{
		UUID:       generateUUID(),
		SessionID:  sessionID,
		Kind:       kind,
		Timestamp:  time.Now(),
		SlideIndex: -1,
		Success:    true,
	}
}

// NewSessionID generates an identifier for a lecture session.
func NewSessionID() string {
	return generateUUID()
}

// generateUUID generates a simple UUID without external dependencies
func generateUUID() string {
	b := make([]byte, 16)
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		// Fallback to timestamp-based ID if random fails
		return fmt.Sprintf("skool-%d", time.Now().UnixNano())
	}

	// Set version (4) and variant bits
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// GetUUID returns the event UUID (used by structured logging helpers)
func (le *LectureEvent) GetUUID() string {
	return le.UUID
}

// SetSlide records which slide this event concerns
func (le *LectureEvent) SetSlide(index int, courseName string) {
	le.SlideIndex = index
	le.CourseName = courseName
}

// SetQuestion records a transcribed student question
func (le *LectureEvent) SetQuestion(transcription string) {
	le.Transcription = transcription
}

// SetResponse records the generated text and marks processing as complete
func (le *LectureEvent) SetResponse(responseText string) {
	le.ResponseText = responseText
	le.ProcessingTime = time.Since(le.Timestamp).Milliseconds()
}

// SetCacheHit records whether the audio came from the prefetch cache
func (le *LectureEvent) SetCacheHit(hit bool) {
	le.CacheHit = hit
}

// SetError marks the event as failed with an error message
func (le *LectureEvent) SetError(err error) {
	le.Success = false
	le.ErrorMessage = err.Error()
	le.ProcessingTime = time.Since(le.Timestamp).Milliseconds()
}

// IsValid performs basic validation on the lecture event
func (le *LectureEvent) IsValid() error {
	if le.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if le.SessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	if le.Kind == "" {
		return fmt.Errorf("kind is required")
	}

	if le.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	return nil
}

// String returns a human-readable representation of the lecture event
func (le *LectureEvent) String() string {
	return fmt.Sprintf("LectureEvent{UUID: %s, Session: %s, Kind: %s, Slide: %d, Success: %t}",
		le.UUID, le.SessionID, le.Kind, le.SlideIndex, le.Success)
}
