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

// Package deck renders an uploaded slide document into an ordered
// sequence of page images on disk.
package deck

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/Rolandjg/skool4free/internal/logging"
)

// Loader converts a slide document into ordered page images
type Loader interface {
	// Load renders pdfPath into outDir, skipping the first startAt pages,
	// and returns the image paths in presentation order.
	Load(ctx context.Context, pdfPath, outDir string, startAt int) ([]string, error)
}

// FitzLoader renders PDF pages to PNG images using MuPDF
type FitzLoader struct{}

// NewFitzLoader creates a new PDF page renderer
func NewFitzLoader() *FitzLoader {
	return &FitzLoader{}
}

// Load implements the Loader interface
func (l *FitzLoader) Load(ctx context.Context, pdfPath, outDir string, startAt int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create slides directory: %w", err)
	}

	// Stale slides from the previous lecture would interleave with the
	// new deck's pages
	if err := clearDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to clear slides directory: %w", err)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if startAt < 0 {
		startAt = 0
	}

	paths := make([]string, 0, pageCount)
	for pageNum := startAt; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Image(pageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pageNum+1, err)
		}

		outputPath := filepath.Join(outDir, fmt.Sprintf("page_%03d.png", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create image for page %d: %w", pageNum+1, err)
		}

		err = png.Encode(outputFile, img)
		if cerr := outputFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d as PNG: %w", pageNum+1, err)
		}

		paths = append(paths, outputPath)
	}

	if logging.Logger != nil {
		logging.Logger.Info("Deck rendered",
			zap.String("pdf", pdfPath),
			zap.Int("pages", pageCount),
			zap.Int("start_at", startAt),
			zap.Int("slides", len(paths)),
		)
	}

	return paths, nil
}

// clearDir removes every entry inside dir, leaving dir itself in place
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}
