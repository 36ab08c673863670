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

package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/deck"
	"github.com/Rolandjg/skool4free/internal/extract"
	"github.com/Rolandjg/skool4free/internal/lecture"
	"github.com/Rolandjg/skool4free/internal/llm"
	"github.com/Rolandjg/skool4free/internal/logging"
	"github.com/Rolandjg/skool4free/internal/messaging"
	"github.com/Rolandjg/skool4free/internal/server"
	"github.com/Rolandjg/skool4free/internal/storage"
	"github.com/Rolandjg/skool4free/internal/transcribe"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	if err := logging.Initialize(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(err, "Invalid configuration")
		log.Fatalf("Invalid configuration: %v", err)
	}

	lecturer := llm.NewLecturer(cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.Timeout)
	if err := lecturer.TestConnection(); err != nil {
		logging.LogWarn("Ollama not reachable at startup, continuing anyway")
	}

	extractor := extract.NewVisionExtractor(cfg.LLM.URL, cfg.LLM.VisionModel, cfg.LLM.Timeout)

	tts, err := llm.NewSpeechClient(cfg.TTS)
	if err != nil {
		logging.LogError(err, "Failed to create TTS client")
		log.Fatalf("Failed to create TTS client: %v", err)
	}
	defer func() { _ = tts.Close() }()

	transcriber := transcribe.NewWhisperClient(cfg.STT)
	loader := deck.NewFitzLoader()

	// The event log is best-effort; the lecture runs without it.
	var eventsStore *storage.LectureEventsStore
	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Storage.Path})
	if err != nil {
		logging.LogError(err, "Failed to open event database, continuing without event log")
	} else {
		defer func() { _ = db.Close() }()
		eventsStore = storage.NewLectureEventsStore(db)
	}

	var natsService *messaging.NATSService
	if cfg.NATS.Enabled {
		natsService, err = messaging.NewNATSService(cfg.NATS)
		if err == nil {
			err = natsService.Connect()
		}
		if err != nil {
			logging.LogError(err, "Failed to connect to NATS, continuing without messaging")
			natsService = nil
		} else {
			defer natsService.Close()
		}
	}

	pipeline := lecture.NewPipeline(loader, extractor, lecturer, tts, transcriber, lecture.Options{
		Lecture:   cfg.Lecture,
		TTS:       cfg.TTS,
		SlidesDir: cfg.Deck.SlidesDir,
		Store:     eventsStore,
		Messaging: natsService,
	})
	defer pipeline.Close()

	srv := server.New(cfg, server.Options{
		Pipeline:    pipeline,
		Models:      lecturer,
		Voices:      tts,
		EventsStore: eventsStore,
	})

	if err := srv.Start(); err != nil {
		logging.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
