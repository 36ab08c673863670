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
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/deck"
	"github.com/Rolandjg/skool4free/internal/events"
	"github.com/Rolandjg/skool4free/internal/extract"
	"github.com/Rolandjg/skool4free/internal/llm"
	"github.com/Rolandjg/skool4free/internal/logging"
	"github.com/Rolandjg/skool4free/internal/messaging"
	"github.com/Rolandjg/skool4free/internal/storage"
	"github.com/Rolandjg/skool4free/internal/transcribe"
)

// askFallbackText is spoken when a question cannot be answered.
const askFallbackText = "I'm sorry, I couldn't process that question. Please try asking again."

// BeginRequest carries everything needed to start a lecture.
type BeginRequest struct {
	PDFPath           string
	CourseName        string
	CourseDescription string
	Model             string
	Voice             string
	StartAt           int
}

// SlideUpdate describes the slide to show next. Done is true once the
// deck is exhausted; the terminal caption is stable across repeat calls.
type SlideUpdate struct {
	ImagePath string `json:"image_path,omitempty"`
	Caption   string `json:"caption"`
	Done      bool   `json:"done"`
}

// Options configures a Pipeline.
type Options struct {
	Lecture   config.LectureConfig
	TTS       config.TTSConfig
	SlidesDir string

	// Optional event sinks; either may be nil.
	Store     *storage.LectureEventsStore
	Messaging *messaging.NATSService
}

// Pipeline drives a lecture end to end: deck rendering, content
// extraction, narration, speech synthesis and the question side channel.
// One session is active at a time; Begin replaces it.
type Pipeline struct {
	loader      deck.Loader
	extractor   extract.Extractor
	lecturer    llm.NarrationGenerator
	tts         llm.TextToSpeech
	transcriber transcribe.Transcriber

	store *storage.LectureEventsStore
	nats  *messaging.NATSService

	lectureCfg config.LectureConfig
	ttsCfg     config.TTSConfig
	slidesDir  string

	synthSem chan struct{}

	mu             sync.Mutex
	session        *Session
	cancelPrefetch context.CancelFunc
}

// NewPipeline wires the lecture pipeline from its adapters.
func NewPipeline(
	loader deck.Loader,
	extractor extract.Extractor,
	lecturer llm.NarrationGenerator,
	tts llm.TextToSpeech,
	transcriber transcribe.Transcriber,
	opts Options,
) *Pipeline {
	workers := opts.Lecture.SynthesisWorkers
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		loader:      loader,
		extractor:   extractor,
		lecturer:    lecturer,
		tts:         tts,
		transcriber: transcriber,
		store:       opts.Store,
		nats:        opts.Messaging,
		lectureCfg:  opts.Lecture,
		ttsCfg:      opts.TTS,
		slidesDir:   opts.SlidesDir,
		synthSem:    make(chan struct{}, workers),
	}
}

// Begin starts a new lecture from a PDF document. The first slide is
// prepared synchronously so the caller gets a ready slide back; the rest
// of the deck is prefetched in the background. Any previous session is
// replaced and its prefetch cancelled.
func (p *Pipeline) Begin(ctx context.Context, req BeginRequest) (SlideUpdate, error) {
	// Stop the old prefetch before the loader clears the slides directory.
	p.mu.Lock()
	if p.cancelPrefetch != nil {
		p.cancelPrefetch()
		p.cancelPrefetch = nil
	}
	p.session = nil
	p.mu.Unlock()

	imagePaths, err := p.loader.Load(ctx, req.PDFPath, p.slidesDir, req.StartAt)
	if err != nil {
		return SlideUpdate{}, fmt.Errorf("failed to render slides: %w", err)
	}
	if len(imagePaths) == 0 {
		return SlideUpdate{}, ErrDeckEmpty
	}

	if p.lectureCfg.ResetHistory {
		p.lecturer.ResetHistory()
	}
	if req.Model != "" {
		p.lecturer.SetModel(req.Model)
	}
	voice := req.Voice
	if voice == "" {
		voice = p.ttsCfg.Voice
	}

	d := NewDeck(imagePaths)
	sess := NewSession(d, req.CourseName, req.CourseDescription, req.Model, voice)

	// The opening slide is prepared inline. If it fails there is no
	// lecture to give, so no session is installed.
	logging.LogSlideProcessing(0, "extract")
	content, err := p.extractor.Extract(ctx, imagePaths[0])
	if err != nil {
		return SlideUpdate{}, fmt.Errorf("failed to read first slide: %w", err)
	}
	if err := d.SetContent(0, content); err != nil {
		return SlideUpdate{}, err
	}

	logging.LogSlideProcessing(0, "narrate")
	narration, err := p.lecturer.GenerateLecture(req.CourseName, req.CourseDescription, content)
	if err != nil {
		return SlideUpdate{}, fmt.Errorf("failed to narrate first slide: %w", err)
	}
	if err := d.SetNarration(0, narration); err != nil {
		return SlideUpdate{}, err
	}

	index, _ := sess.Advance()

	prefetchCtx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.session = sess
	p.cancelPrefetch = cancel
	p.mu.Unlock()

	if p.lectureCfg.PrefetchEnabled && d.Len() > 1 {
		go p.prefetch(prefetchCtx, sess)
	}

	event := events.NewLectureEvent(sess.ID, events.KindLectureStarted)
	event.SetSlide(index, req.CourseName)
	logging.LogLectureEvent(event, "🚀 Lecture started",
		zap.String("session_id", sess.ID),
		zap.String("course", req.CourseName),
		zap.Int("slides", d.Len()))
	p.recordEvent(event)

	return p.slideUpdate(sess, index), nil
}

// NextSlide reveals the next slide. It never fails: if the background
// prefetch has not extracted the slide yet a bare caption is returned,
// and once the deck is exhausted the terminal update repeats forever.
func (p *Pipeline) NextSlide() SlideUpdate {
	sess := p.currentSession()
	if sess == nil {
		return SlideUpdate{Caption: "Lecture completed.", Done: true}
	}

	index, ok := sess.Advance()
	if !ok {
		if sess.MarkCompleted() {
			event := events.NewLectureEvent(sess.ID, events.KindLectureCompleted)
			event.SetSlide(sess.Deck.Len()-1, sess.CourseName)
			logging.LogLectureEvent(event, "✅ Lecture completed",
				zap.String("session_id", sess.ID))
			p.recordEvent(event)
		}
		return SlideUpdate{Caption: "Lecture completed.", Done: true}
	}

	event := events.NewLectureEvent(sess.ID, events.KindSlideRevealed)
	event.SetSlide(index, sess.CourseName)
	p.recordEvent(event)

	return p.slideUpdate(sess, index)
}

// PlayCurrentAudio returns the narration audio for the current slide.
// When the prefetch has already cached audio it is returned immediately;
// otherwise the slide is prepared synchronously on the calling goroutine.
func (p *Pipeline) PlayCurrentAudio(ctx context.Context) ([]byte, error) {
	sess := p.currentSession()
	if sess == nil {
		return nil, ErrNoSession
	}
	index := sess.Current()
	if index < 0 {
		return nil, ErrNoActiveSlide
	}

	start := time.Now()
	snap, err := sess.Deck.Slide(index)
	if err != nil {
		return nil, err
	}

	if snap.HasAudio() {
		event := events.NewLectureEvent(sess.ID, events.KindAudioPlayed)
		event.SetSlide(index, sess.CourseName)
		event.SetCacheHit(true)
		event.ProcessingTime = time.Since(start).Milliseconds()
		p.recordEvent(event)
		return snap.Audio, nil
	}

	// Cache miss: the prefetch has not reached this slide yet, or it
	// failed here. Prepare the slide on this goroutine instead of
	// waiting on the background worker.
	logging.LogWarn("Audio cache miss, preparing slide synchronously",
		zap.Int("slide", index))

	content := snap.Content
	if !snap.HasContent {
		content, err = p.extractor.Extract(ctx, snap.ImagePath)
		if err != nil {
			p.recordAudioFailure(sess, index, start, err)
			return nil, fmt.Errorf("failed to read slide %d: %w", index, err)
		}
		if err := sess.Deck.SetContent(index, content); err != nil {
			return nil, err
		}
	}

	narration := snap.Narration
	if !snap.HasNarration {
		narration, err = p.lecturer.GenerateLecture(sess.CourseName, sess.CourseDescription, content)
		if err != nil {
			p.recordAudioFailure(sess, index, start, err)
			return nil, fmt.Errorf("failed to narrate slide %d: %w", index, err)
		}
		if err := sess.Deck.SetNarration(index, narration); err != nil {
			return nil, err
		}
	}

	audio, err := p.synthesize(narration, sess.Voice)
	if err != nil {
		p.recordAudioFailure(sess, index, start, err)
		return nil, fmt.Errorf("failed to synthesize slide %d: %w", index, err)
	}
	if err := sess.Deck.SetAudio(index, audio); err != nil {
		return nil, err
	}

	event := events.NewLectureEvent(sess.ID, events.KindAudioPlayed)
	event.SetSlide(index, sess.CourseName)
	event.SetCacheHit(false)
	event.ProcessingTime = time.Since(start).Milliseconds()
	p.recordEvent(event)

	return audio, nil
}

// Ask handles a spoken question from the student. The answer is generated
// against the shared lecture transcript, so it can reference earlier
// slides. Failures degrade to a spoken apology rather than an error; the
// session state is never touched.
func (p *Pipeline) Ask(ctx context.Context, questionAudioPath string) (string, []byte) {
	sess := p.currentSession()
	voice := p.ttsCfg.Voice
	if sess != nil {
		voice = sess.Voice
	}

	question, err := p.transcriber.Transcribe(ctx, questionAudioPath)
	if err != nil {
		logging.LogError(err, "Failed to transcribe question")
		return "", p.synthesizeBestEffort(askFallbackText, voice)
	}

	logging.LogLectureEvent(nil, "🎤 Question received", zap.String("question", question))

	answer, err := p.lecturer.GenerateAnswer(question)
	if err != nil {
		logging.LogError(err, "Failed to answer question")
		p.recordQuestion(sess, question, "", err)
		return question, p.synthesizeBestEffort(askFallbackText, voice)
	}

	audio, err := p.synthesize(answer, voice)
	if err != nil {
		logging.LogError(err, "Failed to synthesize answer")
		p.recordQuestion(sess, question, answer, err)
		return question, nil
	}

	p.recordQuestion(sess, question, answer, nil)
	return question, audio
}

// prefetch prepares slides ahead of the cursor. Extraction and narration
// run in deck order on this goroutine; synthesis is handed to a bounded
// worker pool so audio for slide i overlaps narration of slide i+1. A
// failed slide is logged and skipped, leaving its fields for the
// synchronous fallback.
func (p *Pipeline) prefetch(ctx context.Context, sess *Session) {
	d := sess.Deck
	for i := 1; i < d.Len(); i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		snap, err := d.Slide(i)
		if err != nil {
			return
		}

		logging.LogSlideProcessing(i, "extract")
		content, err := p.extractor.Extract(ctx, snap.ImagePath)
		if err != nil {
			logging.LogError(err, "Prefetch extraction failed", zap.Int("slide", i))
			continue
		}
		if err := d.SetContent(i, content); err != nil {
			continue
		}

		logging.LogSlideProcessing(i, "narrate")
		narration, err := p.lecturer.GenerateLecture(sess.CourseName, sess.CourseDescription, content)
		if err != nil {
			logging.LogError(err, "Prefetch narration failed", zap.Int("slide", i))
			continue
		}
		if err := d.SetNarration(i, narration); err != nil {
			continue
		}

		select {
		case p.synthSem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		go func(index int, text string) {
			defer func() { <-p.synthSem }()

			logging.LogSlideProcessing(index, "synthesize")
			audio, err := p.synthesize(text, sess.Voice)
			if err != nil {
				logging.LogError(err, "Prefetch synthesis failed", zap.Int("slide", index))
				return
			}
			if err := d.SetAudio(index, audio); err != nil {
				logging.LogError(err, "Failed to cache slide audio", zap.Int("slide", index))
			}
		}(i, narration)
	}
}

// synthesize runs text-to-speech and drains the audio stream into memory
// so it can live in the slide cache.
func (p *Pipeline) synthesize(text, voice string) ([]byte, error) {
	result, err := p.tts.Synthesize(text, &llm.TTSOptions{
		Voice:          voice,
		Speed:          p.ttsCfg.Speed,
		ResponseFormat: p.ttsCfg.ResponseFormat,
		Normalize:      p.ttsCfg.Normalize,
	})
	if err != nil {
		return nil, err
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	audio, err := io.ReadAll(result.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	return audio, nil
}

func (p *Pipeline) synthesizeBestEffort(text, voice string) []byte {
	audio, err := p.synthesize(text, voice)
	if err != nil {
		logging.LogError(err, "Failed to synthesize fallback response")
		return nil
	}
	return audio
}

func (p *Pipeline) currentSession() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// AudioContentType returns the MIME type of synthesized audio.
func (p *Pipeline) AudioContentType() string {
	switch p.ttsCfg.ResponseFormat {
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	case "flac":
		return "audio/flac"
	default:
		return "audio/mpeg"
	}
}

// Close stops the background prefetch.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelPrefetch != nil {
		p.cancelPrefetch()
		p.cancelPrefetch = nil
	}
}

func (p *Pipeline) slideUpdate(sess *Session, index int) SlideUpdate {
	snap, err := sess.Deck.Slide(index)
	if err != nil {
		return SlideUpdate{Caption: fmt.Sprintf("Slide %d", index+1)}
	}

	caption := fmt.Sprintf("Slide %d", index+1)
	if snap.HasContent {
		caption = fmt.Sprintf("Slide %d: %s", index+1, snap.Content)
	}
	return SlideUpdate{ImagePath: snap.ImagePath, Caption: caption}
}

// recordEvent persists and publishes a lecture event best-effort. Event
// sinks never fail the lecture.
func (p *Pipeline) recordEvent(event *events.LectureEvent) {
	if p.store != nil {
		if err := p.store.Insert(event); err != nil {
			logging.LogError(err, "Failed to store lecture event",
				zap.String("kind", event.Kind))
		}
	}
	if p.nats != nil && p.nats.IsConnected() {
		if err := p.nats.PublishLectureEvent(event); err != nil {
			logging.LogError(err, "Failed to publish lecture event",
				zap.String("kind", event.Kind))
		}
	}
}

func (p *Pipeline) recordAudioFailure(sess *Session, index int, start time.Time, cause error) {
	event := events.NewLectureEvent(sess.ID, events.KindAudioPlayed)
	event.SetSlide(index, sess.CourseName)
	event.ProcessingTime = time.Since(start).Milliseconds()
	event.SetError(cause)
	p.recordEvent(event)
}

func (p *Pipeline) recordQuestion(sess *Session, question, answer string, cause error) {
	if sess == nil {
		return
	}
	event := events.NewLectureEvent(sess.ID, events.KindQuestionAnswered)
	event.SetQuestion(question)
	if answer != "" {
		event.SetResponse(answer)
	}
	if cause != nil {
		event.SetError(cause)
	}
	p.recordEvent(event)
}
