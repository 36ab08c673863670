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

// Package transcribe converts a spoken question recording into text via
// any Whisper-compatible transcription endpoint.
package transcribe

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/logging"
)

// Transcriber converts a question recording into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperClient implements Transcriber against an OpenAI-compatible
// transcription API (a local faster-whisper server or the hosted one)
type WhisperClient struct {
	client *openai.Client
	model  string
}

// NewWhisperClient creates a new transcription client
func NewWhisperClient(cfg config.STTConfig) *WhisperClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &WhisperClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Transcribe implements the Transcriber interface
func (w *WhisperClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if audioPath == "" {
		return "", fmt.Errorf("no audio file provided")
	}

	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🎤 Question transcribed",
			"audio_path", audioPath,
			"text_length", len(text),
		)
	}

	return text, nil
}
