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

// Package api exposes the lecture pipeline over HTTP.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Rolandjg/skool4free/internal/lecture"
	"github.com/Rolandjg/skool4free/internal/logging"
)

// maxUploadSize bounds multipart uploads (PDF decks and question audio).
const maxUploadSize = 100 << 20

// LecturePipeline is the part of the pipeline the HTTP handlers use.
type LecturePipeline interface {
	Begin(ctx context.Context, req lecture.BeginRequest) (lecture.SlideUpdate, error)
	NextSlide() lecture.SlideUpdate
	PlayCurrentAudio(ctx context.Context) ([]byte, error)
	Ask(ctx context.Context, questionAudioPath string) (string, []byte)
	AudioContentType() string
}

// ModelLister lists the language models available for narration.
type ModelLister interface {
	ListModels() ([]string, error)
}

// VoiceLister lists the voices available for synthesis.
type VoiceLister interface {
	GetAvailableVoices() ([]string, error)
}

// LectureHandler handles the lecture control endpoints
type LectureHandler struct {
	pipeline  LecturePipeline
	models    ModelLister
	voices    VoiceLister
	uploadDir string
}

// NewLectureHandler creates a new lecture handler
func NewLectureHandler(pipeline LecturePipeline, models ModelLister, voices VoiceLister, uploadDir string) *LectureHandler {
	return &LectureHandler{
		pipeline:  pipeline,
		models:    models,
		voices:    voices,
		uploadDir: uploadDir,
	}
}

// AskResponse is returned from POST /api/lecture/ask. Audio is base64 so
// the whole exchange fits in one JSON document.
type AskResponse struct {
	Question string `json:"question"`
	Audio    string `json:"audio,omitempty"`
}

// HandleBegin handles POST /api/lecture/begin
func (h *LectureHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	pdfPath, err := h.saveUpload(r, "pdf", ".pdf")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := lecture.BeginRequest{
		PDFPath:           pdfPath,
		CourseName:        r.FormValue("course_name"),
		CourseDescription: r.FormValue("course_description"),
		Model:             r.FormValue("model"),
		Voice:             r.FormValue("voice"),
		StartAt:           parseIntParam(r.FormValue("start_at"), 0),
	}
	if req.CourseName == "" {
		http.Error(w, "course_name is required", http.StatusBadRequest)
		return
	}

	update, err := h.pipeline.Begin(r.Context(), req)
	if err != nil {
		if errors.Is(err, lecture.ErrDeckEmpty) {
			http.Error(w, "Document contains no slides", http.StatusBadRequest)
			return
		}
		logging.LogError(err, "Failed to begin lecture",
			zap.String("course", req.CourseName))
		http.Error(w, "Failed to begin lecture", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, update)
}

// HandleNext handles POST /api/lecture/next
func (h *LectureHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.pipeline.NextSlide())
}

// HandleAudio handles GET /api/lecture/audio
func (h *LectureHandler) HandleAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	audio, err := h.pipeline.PlayCurrentAudio(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, lecture.ErrNoSession), errors.Is(err, lecture.ErrNoActiveSlide):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logging.LogError(err, "Failed to produce slide audio")
			http.Error(w, "Failed to produce slide audio", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", h.pipeline.AudioContentType())
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(audio)))
	if _, err := w.Write(audio); err != nil {
		logging.LogError(err, "Failed to write slide audio")
	}
}

// HandleAsk handles POST /api/lecture/ask
func (h *LectureHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	audioPath, err := h.saveUpload(r, "audio", ".wav")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer os.Remove(audioPath)

	question, answerAudio := h.pipeline.Ask(r.Context(), audioPath)

	response := AskResponse{Question: question}
	if len(answerAudio) > 0 {
		response.Audio = base64.StdEncoding.EncodeToString(answerAudio)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleModels handles GET /api/models
func (h *LectureHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	models, err := h.models.ListModels()
	if err != nil {
		logging.LogError(err, "Failed to list models")
		http.Error(w, "Failed to list models", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}

// HandleVoices handles GET /api/voices
func (h *LectureHandler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voices, err := h.voices.GetAvailableVoices()
	if err != nil {
		logging.LogError(err, "Failed to list voices")
		http.Error(w, "Failed to list voices", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"voices": voices})
}

// saveUpload copies a multipart file field into the upload directory and
// returns its path on disk.
func (h *LectureHandler) saveUpload(r *http.Request, field, fallbackExt string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%s file is required", field)
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to prepare upload directory")
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = fallbackExt
	}
	name := fmt.Sprintf("%s_%d%s", field, time.Now().UnixNano(), ext)
	path := filepath.Join(h.uploadDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store upload")
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store upload")
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.LogError(err, "Failed to encode response")
	}
}
