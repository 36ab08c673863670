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

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rolandjg/skool4free/internal/lecture"
)

type stubPipeline struct {
	beginReq    lecture.BeginRequest
	beginUpdate lecture.SlideUpdate
	beginErr    error
	nextUpdate  lecture.SlideUpdate
	audio       []byte
	audioErr    error
	question    string
	answer      []byte
}

func (s *stubPipeline) Begin(ctx context.Context, req lecture.BeginRequest) (lecture.SlideUpdate, error) {
	s.beginReq = req
	return s.beginUpdate, s.beginErr
}

func (s *stubPipeline) NextSlide() lecture.SlideUpdate { return s.nextUpdate }

func (s *stubPipeline) PlayCurrentAudio(ctx context.Context) ([]byte, error) {
	return s.audio, s.audioErr
}

func (s *stubPipeline) Ask(ctx context.Context, questionAudioPath string) (string, []byte) {
	return s.question, s.answer
}

func (s *stubPipeline) AudioContentType() string { return "audio/mpeg" }

type stubModels struct{ models []string }

func (s *stubModels) ListModels() ([]string, error) { return s.models, nil }

type stubVoices struct{ voices []string }

func (s *stubVoices) GetAvailableVoices() ([]string, error) { return s.voices, nil }

func newTestHandler(t *testing.T, pipeline *stubPipeline) *LectureHandler {
	t.Helper()
	return NewLectureHandler(
		pipeline,
		&stubModels{models: []string{"qwen2.5:3b"}},
		&stubVoices{voices: []string{"af_bella"}},
		t.TempDir(),
	)
}

func multipartBody(t *testing.T, field, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestHandleBegin(t *testing.T) {
	pipeline := &stubPipeline{
		beginUpdate: lecture.SlideUpdate{ImagePath: "/slides/page_000.png", Caption: "Slide 1: intro"},
	}
	handler := newTestHandler(t, pipeline)

	body, contentType := multipartBody(t, "pdf", "deck.pdf", []byte("%PDF-1.4"), map[string]string{
		"course_name":        "Linear Algebra",
		"course_description": "vectors and matrices",
		"start_at":           "2",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/lecture/begin", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.HandleBegin(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var update lecture.SlideUpdate
	if err := json.NewDecoder(rr.Body).Decode(&update); err != nil {
		t.Fatal(err)
	}
	if update.Caption != "Slide 1: intro" {
		t.Errorf("Caption = %q", update.Caption)
	}

	if pipeline.beginReq.CourseName != "Linear Algebra" {
		t.Errorf("CourseName = %q", pipeline.beginReq.CourseName)
	}
	if pipeline.beginReq.StartAt != 2 {
		t.Errorf("StartAt = %d, want 2", pipeline.beginReq.StartAt)
	}
	if !strings.HasSuffix(pipeline.beginReq.PDFPath, ".pdf") {
		t.Errorf("PDFPath = %q, want .pdf suffix", pipeline.beginReq.PDFPath)
	}
}

func TestHandleBegin_MissingCourseName(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	body, contentType := multipartBody(t, "pdf", "deck.pdf", []byte("%PDF-1.4"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/lecture/begin", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.HandleBegin(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleBegin_EmptyDeck(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{beginErr: lecture.ErrDeckEmpty})

	body, contentType := multipartBody(t, "pdf", "deck.pdf", []byte("%PDF-1.4"), map[string]string{
		"course_name": "Empty",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/lecture/begin", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.HandleBegin(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleNext(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{
		nextUpdate: lecture.SlideUpdate{Caption: "Lecture completed.", Done: true},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/lecture/next", nil)
	rr := httptest.NewRecorder()
	handler.HandleNext(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var update lecture.SlideUpdate
	if err := json.NewDecoder(rr.Body).Decode(&update); err != nil {
		t.Fatal(err)
	}
	if !update.Done {
		t.Error("expected terminal update")
	}
}

func TestHandleAudio(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{audio: []byte("mp3 bytes")})

	req := httptest.NewRequest(http.MethodGet, "/api/lecture/audio", nil)
	rr := httptest.NewRecorder()
	handler.HandleAudio(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Body.String() != "mp3 bytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestHandleAudio_NoSession(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{audioErr: lecture.ErrNoSession})

	req := httptest.NewRequest(http.MethodGet, "/api/lecture/audio", nil)
	rr := httptest.NewRecorder()
	handler.HandleAudio(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{
		question: "what is a matrix?",
		answer:   []byte("spoken answer"),
	})

	body, contentType := multipartBody(t, "audio", "question.wav", []byte("RIFF"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/lecture/ask", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	handler.HandleAsk(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var response AskResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.Question != "what is a matrix?" {
		t.Errorf("Question = %q", response.Question)
	}
	decoded, err := base64.StdEncoding.DecodeString(response.Audio)
	if err != nil {
		t.Fatalf("audio is not valid base64: %v", err)
	}
	if string(decoded) != "spoken answer" {
		t.Errorf("audio = %q", decoded)
	}
}

func TestHandleModelsAndVoices(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	rr := httptest.NewRecorder()
	handler.HandleModels(rr, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("models status = %d", rr.Code)
	}
	var models map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&models); err != nil {
		t.Fatal(err)
	}
	if len(models["models"]) != 1 || models["models"][0] != "qwen2.5:3b" {
		t.Errorf("models = %v", models)
	}

	rr = httptest.NewRecorder()
	handler.HandleVoices(rr, httptest.NewRequest(http.MethodGet, "/api/voices", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("voices status = %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	cases := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"begin", http.MethodGet, handler.HandleBegin},
		{"next", http.MethodGet, handler.HandleNext},
		{"audio", http.MethodPost, handler.HandleAudio},
		{"ask", http.MethodGet, handler.HandleAsk},
		{"models", http.MethodPost, handler.HandleModels},
		{"voices", http.MethodPost, handler.HandleVoices},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.handler(rr, httptest.NewRequest(tc.method, "/", nil))
			if rr.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rr.Code)
			}
		})
	}
}
