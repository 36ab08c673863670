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

// Package extract turns a rendered slide image into the text shown on it,
// using a multimodal model served by Ollama.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Rolandjg/skool4free/internal/logging"
)

// extractionPrompt asks the vision model for slide text only, no commentary.
const extractionPrompt = `Transcribe the text and describe the diagrams on this presentation slide. Output only the slide content itself, reading order top to bottom. Do not add commentary.`

// Extractor returns the textual content of a rendered slide image
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

// generateRequest represents a request to the Ollama generate API
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse represents a response from the Ollama generate API
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// VisionExtractor extracts slide content with an Ollama vision model
type VisionExtractor struct {
	ollamaURL string
	model     string
	client    *http.Client
}

// NewVisionExtractor creates a new vision-model slide extractor
func NewVisionExtractor(ollamaURL, model string, timeout time.Duration) *VisionExtractor {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &VisionExtractor{
		ollamaURL: strings.TrimSuffix(ollamaURL, "/"),
		model:     model,
		client:    &http.Client{Timeout: timeout},
	}
}

// Extract reads the slide image and asks the vision model for its content
func (e *VisionExtractor) Extract(ctx context.Context, imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read slide image: %w", err)
	}

	startTime := time.Now()

	reqBody := generateRequest{
		Model:  e.model,
		Prompt: extractionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.ollamaURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
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

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	content := strings.TrimSpace(genResp.Response)
	if content == "" {
		return "", fmt.Errorf("vision model %s returned no content", e.model)
	}

	if logging.Logger != nil {
		logging.Logger.Debug("Slide content extracted",
			zap.String("image", imagePath),
			zap.Int("content_length", len(content)),
			zap.Duration("processing_time", time.Since(startTime)),
		)
	}

	return content, nil
}
