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

package lecture

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Rolandjg/skool4free/internal/llm"
)

// fakeLoader returns canned image paths instead of rendering a PDF. It
// mirrors the real loader's startAt handling: negative values clamp to
// zero, and a start past the last page yields an empty deck.
type fakeLoader struct {
	paths []string
	err   error
	calls atomic.Int64
}

func (f *fakeLoader) Load(ctx context.Context, pdfPath, outDir string, startAt int) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if startAt < 0 {
		startAt = 0
	}
	if startAt >= len(f.paths) {
		return nil, nil
	}
	return f.paths[startAt:], nil
}

// fakeExtractor answers with a deterministic string per image path. When
// blockCall is set, that call number (1-based) parks on blockCh until it
// is closed; blocked is signalled once the call is waiting.
type fakeExtractor struct {
	err       error
	calls     atomic.Int64
	blockCall int64
	blockCh   chan struct{}
	blocked   chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, imagePath string) (string, error) {
	n := f.calls.Add(1)
	if f.blockCall != 0 && n == f.blockCall {
		if f.blocked != nil {
			close(f.blocked)
		}
		select {
		case <-f.blockCh:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return "content of " + imagePath, nil
}

// fakeLecturer implements llm.NarrationGenerator with counters.
type fakeLecturer struct {
	lectureErr   error
	answerErr    error
	lectureCalls atomic.Int64
	answerCalls  atomic.Int64
	resets       atomic.Int64
	model        atomic.Value
}

func (f *fakeLecturer) GenerateLecture(courseName, courseDescription, slideContent string) (string, error) {
	f.lectureCalls.Add(1)
	if f.lectureErr != nil {
		return "", f.lectureErr
	}
	return "narration for " + slideContent, nil
}

func (f *fakeLecturer) GenerateAnswer(question string) (string, error) {
	f.answerCalls.Add(1)
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return "answer to " + question, nil
}

func (f *fakeLecturer) SetModel(model string) { f.model.Store(model) }
func (f *fakeLecturer) ResetHistory()         { f.resets.Add(1) }
func (f *fakeLecturer) HistoryLen() int       { return 0 }

// fakeTTS returns the input text tagged as audio bytes.
type fakeTTS struct {
	err   error
	calls atomic.Int64
}

func (f *fakeTTS) Synthesize(text string, options *llm.TTSOptions) (*llm.TTSResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	audio := []byte("audio:" + text)
	return &llm.TTSResult{
		Audio:       bytes.NewReader(audio),
		ContentType: "audio/mpeg",
		Length:      int64(len(audio)),
	}, nil
}

func (f *fakeTTS) GetAvailableVoices() ([]string, error) {
	return []string{"af_bella"}, nil
}

func (f *fakeTTS) Close() error { return nil }

// fakeTranscriber returns a fixed transcription.
type fakeTranscriber struct {
	text  string
	err   error
	calls atomic.Int64
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func slidePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/tmp/slides/page_%03d.png", i)
	}
	return paths
}
