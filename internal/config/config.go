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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Skool4Free hub
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	TTS     TTSConfig
	STT     STTConfig
	Deck    DeckConfig
	Lecture LectureConfig
	Storage StorageConfig
	NATS    NATSConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LLMConfig holds Ollama language model configuration
type LLMConfig struct {
	URL         string // Ollama REST API URL
	Model       string // Chat model used for narration and answers
	VisionModel string // Multimodal model used for slide content extraction
	Timeout     time.Duration
}

// TTSConfig holds Text-to-Speech service configuration
type TTSConfig struct {
	URL            string        // REST API URL for OpenAI-compatible TTS service
	Voice          string        // Default voice to use (e.g., "af_bella")
	Speed          float32       // Speech speed (1.0 = normal)
	ResponseFormat string        // Audio format (mp3, wav, opus, flac)
	Normalize      bool          // Enable text normalization
	MaxConcurrent  int           // Maximum concurrent TTS requests
	Timeout        time.Duration // Request timeout
}

// STTConfig holds Speech-to-Text service configuration
type STTConfig struct {
	BaseURL string // OpenAI-compatible API base URL (local whisper server or api.openai.com)
	APIKey  string
	Model   string
}

// DeckConfig holds slide deck rendering configuration
type DeckConfig struct {
	SlidesDir string // Directory where rendered slide images are written
	UploadDir string // Directory for uploaded PDF documents
}

// LectureConfig holds lecture pipeline configuration
type LectureConfig struct {
	ResetHistory     bool // Reset the conversation transcript on each new lecture
	PrefetchEnabled  bool // Generate narration and audio for upcoming slides in the background
	SynthesisWorkers int  // Concurrent audio synthesis jobs during prefetch
}

// StorageConfig holds database configuration
type StorageConfig struct {
	Path string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	Enabled       bool
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:        getEnvString("SKOOL_HOST", "0.0.0.0"),
			Port:        getEnvInt("SKOOL_PORT", 8080),
			ReadTimeout: getEnvDuration("SKOOL_READ_TIMEOUT", 60*time.Second),
			// Synchronous fallback generation can take minutes on slow models
			WriteTimeout: getEnvDuration("SKOOL_WRITE_TIMEOUT", 5*time.Minute),
		},
		LLM: LLMConfig{
			URL:         getEnvString("OLLAMA_URL", "http://localhost:11434"),
			Model:       getEnvString("SKOOL_LLM_MODEL", "qwen2.5:3b"),
			VisionModel: getEnvString("SKOOL_VISION_MODEL", "moondream"),
			Timeout:     getEnvDuration("SKOOL_LLM_TIMEOUT", 2*time.Minute),
		},
		TTS: TTSConfig{
			URL:            getEnvString("SKOOL_TTS_URL", "http://localhost:8880/v1"),
			Voice:          getEnvString("SKOOL_TTS_VOICE", "af_bella"),
			Speed:          getEnvFloat32("SKOOL_TTS_SPEED", 1.25),
			ResponseFormat: getEnvString("SKOOL_TTS_FORMAT", "mp3"),
			Normalize:      getEnvBool("SKOOL_TTS_NORMALIZE", true),
			MaxConcurrent:  getEnvInt("SKOOL_TTS_MAX_CONCURRENT", 4),
			Timeout:        getEnvDuration("SKOOL_TTS_TIMEOUT", 30*time.Second),
		},
		STT: STTConfig{
			BaseURL: getEnvString("STT_URL", "http://localhost:8000/v1"),
			APIKey:  getEnvString("STT_API_KEY", "local"),
			Model:   getEnvString("STT_MODEL", "whisper-1"),
		},
		Deck: DeckConfig{
			SlidesDir: getEnvString("SKOOL_SLIDES_DIR", "./slides"),
			UploadDir: getEnvString("SKOOL_UPLOAD_DIR", "./pdfs"),
		},
		Lecture: LectureConfig{
			ResetHistory:     getEnvBool("SKOOL_RESET_HISTORY", true),
			PrefetchEnabled:  getEnvBool("SKOOL_PREFETCH", true),
			SynthesisWorkers: getEnvInt("SKOOL_SYNTH_WORKERS", 2),
		},
		Storage: StorageConfig{
			Path: getEnvString("DB_PATH", "./data/skool4free.db"),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.LLM.URL == "" {
		return fmt.Errorf("Ollama URL must be provided")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("LLM model must be provided")
	}

	if c.TTS.URL == "" {
		return fmt.Errorf("TTS URL must be provided")
	}

	if c.TTS.MaxConcurrent <= 0 {
		return fmt.Errorf("TTS max concurrent must be positive: %d", c.TTS.MaxConcurrent)
	}

	if c.TTS.Speed <= 0 {
		return fmt.Errorf("TTS speed must be positive: %f", c.TTS.Speed)
	}

	if c.STT.BaseURL == "" {
		return fmt.Errorf("STT base URL must be provided")
	}

	if c.Deck.SlidesDir == "" {
		return fmt.Errorf("slides directory must be provided")
	}

	if c.Lecture.SynthesisWorkers <= 0 {
		return fmt.Errorf("synthesis workers must be positive: %d", c.Lecture.SynthesisWorkers)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
