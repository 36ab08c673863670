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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Rolandjg/skool4free/internal/api"
	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/logging"
	"github.com/Rolandjg/skool4free/internal/storage"
)

// Server hosts the lecture HTTP API and the rendered slide images
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	lectureHandler *api.LectureHandler
	eventsHandler  *api.LectureEventsHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Options carries the wired handlers into the server.
type Options struct {
	Pipeline api.LecturePipeline
	Models   api.ModelLister
	Voices   api.VoiceLister

	// EventsStore is optional; the event log endpoints are only mounted
	// when it is present.
	EventsStore *storage.LectureEventsStore
}

// New creates a new server
func New(cfg *config.Config, opts Options) *Server {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:            cfg,
		mux:            mux,
		lectureHandler: api.NewLectureHandler(opts.Pipeline, opts.Models, opts.Voices, cfg.Deck.UploadDir),
		ctx:            ctx,
		cancel:         cancel,
	}
	if opts.EventsStore != nil {
		s.eventsHandler = api.NewLectureEventsHandler(opts.EventsStore)
	}

	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 Skool4Free starting",
		"http_port", s.cfg.Server.Port,
		"slides_dir", s.cfg.Deck.SlidesDir)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Skool4Free")

	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Sugar.Infow("✅ Skool4Free shut down successfully")
	return nil
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/lecture/begin", s.lectureHandler.HandleBegin)
	s.mux.HandleFunc("/api/lecture/next", s.lectureHandler.HandleNext)
	s.mux.HandleFunc("/api/lecture/audio", s.lectureHandler.HandleAudio)
	s.mux.HandleFunc("/api/lecture/ask", s.lectureHandler.HandleAsk)
	s.mux.HandleFunc("/api/models", s.lectureHandler.HandleModels)
	s.mux.HandleFunc("/api/voices", s.lectureHandler.HandleVoices)

	if s.eventsHandler != nil {
		s.mux.HandleFunc("/api/lecture-events", s.eventsHandler.HandleLectureEvents)
		s.mux.HandleFunc("/api/lecture-events/", s.eventsHandler.HandleLectureEventByID)
	}

	// Rendered slide images for the client to display.
	s.mux.Handle("/slides/", http.StripPrefix("/slides/",
		http.FileServer(http.Dir(s.cfg.Deck.SlidesDir))))

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"begin_endpoint", "/api/lecture/begin",
		"audio_endpoint", "/api/lecture/audio",
		"ask_endpoint", "/api/lecture/ask")
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "skool4free",
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Sugar.Errorw("Failed to write health response", "error", err)
	}
}
