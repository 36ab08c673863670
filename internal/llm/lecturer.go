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

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Rolandjg/skool4free/internal/logging"
)

// lectureSystemPrompt is the professor persona given to the chat model.
const lectureSystemPrompt = `You are a professor giving a lecture based on a slide show, you need to lecture to a student the class. The user will be sending information about the class and what is currently on the slides. Lecture about what is currently on the slides, MAKE SURE IT IS RELEVANT.

The user may also ask questions, when this happens, answer the users question.

Here are some rules to follow:
	Do not introduce yourself, just immediately start lecturing
	Do not say things like "certainly!" or anything similar
	Be conversational, talk with an academic human tone
	Do not spend too long on each slide, your response should be around 6 sentences long.
	ALWAYS end your response with "any questions before we move on to the next slide?"
	Do not simply explain the content on the slides, teach about the content, the slide should complement what you are saying.
	There may be information that is not meant to be read, like dates, authors, chapters, etc. Focus on the core content of the slide that is being lectured on and relevant to the class
	If there are any questions on the slide, read the question, then answer the question and explain the reasoning behind the answer`

// nonSpokenChars matches everything the TTS voice should not try to read out.
var nonSpokenChars = regexp.MustCompile(`[^a-zA-Z0-9\s.,]`)

// NarrationGenerator produces lecture narration and answers follow-up
// questions over one shared conversation transcript
type NarrationGenerator interface {
	GenerateLecture(courseName, courseDescription, slideContent string) (string, error)
	GenerateAnswer(question string) (string, error)
	SetModel(model string)
	ResetHistory()
	HistoryLen() int
}

// ChatMessage is a single role-tagged entry of the conversation transcript
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaChatRequest represents a request to the Ollama chat API
type OllamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// OllamaChatResponse represents a response from the Ollama chat API
type OllamaChatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// ollamaTagsResponse represents the response from the Ollama tags API
type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Lecturer generates lecture narration using an Ollama chat model.
//
// The conversation transcript is shared between slide narration and
// question answering so that follow-up questions have lecture context.
// All appends happen under one mutex; a whole request plus its two
// transcript appends is a single critical section, so entries never
// interleave mid-exchange.
type Lecturer struct {
	ollamaURL string
	client    *http.Client

	mu      sync.Mutex
	model   string
	history []ChatMessage
}

// NewLecturer creates a new lecturer backed by the Ollama chat API
func NewLecturer(ollamaURL, model string, timeout time.Duration) *Lecturer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Lecturer{
		ollamaURL: strings.TrimSuffix(ollamaURL, "/"),
		model:     model,
		client:    &http.Client{Timeout: timeout},
		history: []ChatMessage{
			{Role: "system", Content: lectureSystemPrompt},
		},
	}
}

// GenerateLecture produces narration for one slide and records the
// exchange in the transcript
func (l *Lecturer) GenerateLecture(courseName, courseDescription, slideContent string) (string, error) {
	prompt := fmt.Sprintf("course name: %q, course description: %q, slide content: %q",
		courseName, courseDescription, slideContent)
	return l.exchange(prompt)
}

// GenerateAnswer answers a student question with the full lecture
// transcript as context
func (l *Lecturer) GenerateAnswer(question string) (string, error) {
	return l.exchange(fmt.Sprintf("question from user: %s", question))
}

// exchange appends a user message, queries the chat model and appends
// the assistant reply. On failure the user message is rolled back so a
// broken exchange never leaves a dangling half of the conversation.
func (l *Lecturer) exchange(userContent string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, ChatMessage{Role: "user", Content: userContent})

	reply, err := l.queryChat(l.model, l.history)
	if err != nil {
		l.history = l.history[:len(l.history)-1]
		return "", err
	}

	final := sanitizeForSpeech(reply)
	l.history = append(l.history, ChatMessage{Role: "assistant", Content: final})

	if logging.Sugar != nil {
		logging.Sugar.Debugw("🧠 Lecturer exchange complete",
			"model", l.model,
			"history_len", len(l.history),
			"reply_length", len(final),
		)
	}

	return final, nil
}

// queryChat sends a chat request to the Ollama API. Caller holds the lock.
func (l *Lecturer) queryChat(model string, messages []ChatMessage) (string, error) {
	reqBody := OllamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling chat request: %w", err)
	}

	resp, err := l.client.Post(l.ollamaURL+"/api/chat", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error making request to Ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.LogWarn("failed to close Ollama response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	var chatResp OllamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("error unmarshaling chat response: %w", err)
	}

	reply := strings.TrimSpace(chatResp.Message.Content)
	if reply == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	return reply, nil
}

// SetModel switches the chat model used for subsequent exchanges
func (l *Lecturer) SetModel(model string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if model != "" {
		l.model = model
	}
}

// ResetHistory drops the conversation transcript, keeping only the
// system prompt. Used when a new lecture should not inherit context
// from the previous deck.
func (l *Lecturer) ResetHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = []ChatMessage{
		{Role: "system", Content: lectureSystemPrompt},
	}
}

// HistoryLen reports the number of transcript entries, system prompt included
func (l *Lecturer) HistoryLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// ListModels returns the model names known to the Ollama instance
func (l *Lecturer) ListModels() ([]string, error) {
	resp, err := l.client.Get(l.ollamaURL + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Ollama at %s: %w", l.ollamaURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.LogWarn("failed to close Ollama response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("error unmarshaling tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// TestConnection tests if Ollama is accessible
func (l *Lecturer) TestConnection() error {
	models, err := l.ListModels()
	if err != nil {
		return err
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("✅ Lecturer connected to Ollama",
			"url", l.ollamaURL,
			"model", l.model,
			"available_models", len(models),
		)
	}
	return nil
}

// sanitizeForSpeech strips characters the TTS voice would stumble over,
// keeping letters, digits, whitespace, periods and commas
func sanitizeForSpeech(text string) string {
	return strings.TrimSpace(nonSpokenChars.ReplaceAllString(text, ""))
}
