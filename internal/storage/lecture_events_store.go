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

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Rolandjg/skool4free/internal/events"
	"github.com/Rolandjg/skool4free/internal/logging"
)

// LectureEventsStore handles database operations for lecture events
type LectureEventsStore struct {
	db *Database
}

// NewLectureEventsStore creates a new lecture events store
func NewLectureEventsStore(db *Database) *LectureEventsStore {
	return &LectureEventsStore{db: db}
}

// Insert stores a new lecture event in the database
func (s *LectureEventsStore) Insert(event *events.LectureEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid lecture event: %w", err)
	}

	query := `
		INSERT INTO lecture_events (
			uuid, session_id, kind, timestamp,
			slide_index, course_name,
			transcription, response_text, cache_hit,
			processing_time_ms, success, error_message
		) VALUES (
			?, ?, ?, ?,
			?, ?,
			?, ?, ?,
			?, ?, ?
		)`

	_, err := s.db.DB().Exec(query,
		event.UUID, event.SessionID, event.Kind, event.Timestamp,
		event.SlideIndex, event.CourseName,
		event.Transcription, event.ResponseText, event.CacheHit,
		event.ProcessingTime, event.Success, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert lecture event: %w", err)
	}

	logging.LogDatabaseOperation("insert", "lecture_events")
	return nil
}

// GetByUUID retrieves a lecture event by its UUID
func (s *LectureEventsStore) GetByUUID(uuid string) (*events.LectureEvent, error) {
	query := `
		SELECT uuid, session_id, kind, timestamp,
			   slide_index, course_name,
			   transcription, response_text, cache_hit,
			   processing_time_ms, success, error_message
		FROM lecture_events
		WHERE uuid = ?`

	row := s.db.DB().QueryRow(query, uuid)
	return s.scanLectureEvent(row)
}

// List retrieves lecture events with pagination and filtering
func (s *LectureEventsStore) List(options ListOptions) ([]*events.LectureEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lecture events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.LectureEvent
	for rows.Next() {
		event, err := s.scanLectureEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lecture event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lecture events: %w", err)
	}

	return eventsList, nil
}

// Count returns the total number of lecture events matching the filter
func (s *LectureEventsStore) Count(options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lecture events: %w", err)
	}

	return count, nil
}

// GetRecentBySession retrieves recent events for a specific lecture session
func (s *LectureEventsStore) GetRecentBySession(sessionID string, limit int) ([]*events.LectureEvent, error) {
	options := ListOptions{
		SessionID: sessionID,
		Limit:     limit,
	}
	return s.List(options)
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	SessionID string
	Kind      string
	Success   *bool // nil = all, true = success only, false = errors only
	StartTime *time.Time
	EndTime   *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "slide_index", "processing_time"
	SortOrder string // "ASC", "DESC"
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *LectureEventsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := `
		SELECT uuid, session_id, kind, timestamp,
			   slide_index, course_name,
			   transcription, response_text, cache_hit,
			   processing_time_ms, success, error_message
		FROM lecture_events WHERE 1=1`

	var args []interface{}

	if options.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, options.SessionID)
	}

	if options.Kind != "" {
		query += " AND kind = ?"
		args = append(args, options.Kind)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	sortBy := options.SortBy
	switch sortBy {
	case "timestamp", "slide_index", "processing_time_ms":
	case "processing_time":
		sortBy = "processing_time_ms"
	default:
		sortBy = "timestamp"
	}

	sortOrder := options.SortOrder
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanner captures *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanLectureEvent scans a database row into a LectureEvent
func (s *LectureEventsStore) scanLectureEvent(row scanner) (*events.LectureEvent, error) {
	var event events.LectureEvent

	err := row.Scan(
		&event.UUID, &event.SessionID, &event.Kind, &event.Timestamp,
		&event.SlideIndex, &event.CourseName,
		&event.Transcription, &event.ResponseText, &event.CacheHit,
		&event.ProcessingTime, &event.Success, &event.ErrorMessage,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lecture event not found")
		}
		return nil, err
	}

	return &event, nil
}
