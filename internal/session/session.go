/*
 * This file is part of Skald (https://github.com/skaldaudio/skald).
 * Copyright (C) 2025 Skald Audio
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

// Package session adapts the capture engine to an external
// request/response dispatcher: named operations in, structured records
// out, encoded chunks pushed asynchronously to an attached sink.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skaldaudio/skald/internal/audio"
)

// Canonical operation names. The historical platform split shipped
// divergent method sets (getAudioSources vs getAvailableAudioSources);
// the windows naming is canonical here and the variant is gone.
const (
	OpGetAudioSources   = "getAudioSources"
	OpSelectAudioSource = "selectAudioSource"
	OpStartCapture      = "startCapture"
	OpStopCapture       = "stopCapture"
	OpGetAudioConfig    = "getAudioConfig"
)

// SourceRecord is the wire shape of one catalog entry
type SourceRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsAvailable bool   `json:"isAvailable"`
}

// SelectResult is the wire shape of a selectAudioSource response
type SelectResult struct {
	Success          bool   `json:"success"`
	SelectedSourceID string `json:"selectedSourceId"`
}

// CaptureResult is the wire shape of start/stopCapture responses
type CaptureResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConfigRecord is the wire shape of the fixed capture format
type ConfigRecord struct {
	SampleRateHz    int `json:"sampleRateHz"`
	ChannelCount    int `json:"channelCount"`
	BitsPerSample   int `json:"bitsPerSample"`
	BlockSizeFrames int `json:"blockSizeFrames"`
}

// Session wires a source catalog and a capture engine to the dispatcher
// boundary. It owns the source selection and the sink handle; the
// engine owns the producer and its lifecycle.
//
// The sink handle is the only state shared between the control side and
// the producer goroutine, so it sits behind its own lock. Chunks are
// dropped when no sink is attached or the sink cannot accept
// immediately: no buffering, no backpressure.
type Session struct {
	catalog audio.Catalog
	engine  *audio.Engine
	encoder *audio.Encoder
	cfg     audio.Config
	log     zerolog.Logger

	selMu    sync.Mutex
	selected string

	sinkMu sync.RWMutex
	sink   chan<- audio.Chunk
}

// New creates a session over the given catalog and engine
func New(catalog audio.Catalog, engine *audio.Engine, cfg audio.Config, log zerolog.Logger) *Session {
	return &Session{
		catalog: catalog,
		engine:  engine,
		encoder: audio.NewEncoder(),
		cfg:     cfg,
		log:     log,
	}
}

// ListSources returns the catalog snapshot as wire records, ordered
func (s *Session) ListSources() ([]SourceRecord, error) {
	sources, err := s.catalog.ListSources()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	records := make([]SourceRecord, 0, len(sources))
	for _, src := range sources {
		records = append(records, SourceRecord{
			ID:          src.ID,
			Name:        src.Name,
			Type:        string(src.Kind),
			IsAvailable: src.Available,
		})
	}
	return records, nil
}

// SelectSource records the capture source selection. An empty id is
// rejected; the prior selection is untouched on rejection.
//
// The id is NOT validated against the catalog: selecting an unknown id
// still succeeds, matching the original boundary. Flagged in DESIGN.md,
// pending a product decision.
func (s *Session) SelectSource(sourceID string) (SelectResult, error) {
	if sourceID == "" {
		return SelectResult{}, invalidArguments("sourceId is required")
	}

	s.selMu.Lock()
	s.selected = sourceID
	s.selMu.Unlock()

	s.log.Debug().Str("source_id", sourceID).Msg("Audio source selected")
	return SelectResult{Success: true, SelectedSourceID: sourceID}, nil
}

// Selected returns the currently selected source id, empty if unset
func (s *Session) Selected() string {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return s.selected
}

// StartCapture starts the engine with a callback that encodes each
// block and forwards the chunk to the attached sink. Failures are
// reported as a boolean plus message, never as a crash.
func (s *Session) StartCapture() CaptureResult {
	err := s.engine.Start(func(block []float32) {
		s.deliver(s.encoder.Encode(block))
	})
	if err != nil {
		if errors.Is(err, audio.ErrAlreadyCapturing) {
			return CaptureResult{Success: false, Message: "Capture already in progress"}
		}
		s.log.Error().Err(err).Msg("Failed to start capture")
		return CaptureResult{Success: false, Message: fmt.Sprintf("Failed to start capture: %v", err)}
	}

	s.log.Info().Str("source_id", s.Selected()).Msg("Capture started")
	return CaptureResult{Success: true, Message: "Capture started"}
}

// StopCapture stops the engine, joining the producer before returning.
// Always reports success, including when already stopped.
func (s *Session) StopCapture() CaptureResult {
	s.engine.Stop()
	s.log.Info().Msg("Capture stopped")
	return CaptureResult{Success: true, Message: "Capture stopped"}
}

// Config returns the fixed capture format as a wire record
func (s *Session) Config() ConfigRecord {
	return ConfigRecord{
		SampleRateHz:    s.cfg.SampleRateHz,
		ChannelCount:    s.cfg.ChannelCount,
		BitsPerSample:   s.cfg.BitsPerSample,
		BlockSizeFrames: s.cfg.BlockSizeFrames,
	}
}

// AttachSink sets the delivery channel for encoded chunks. Independent
// of the capture lifecycle: attaching before, during, or after start is
// all valid. Replaces any previously attached sink.
func (s *Session) AttachSink(sink chan<- audio.Chunk) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

// DetachSink clears the delivery channel. Capture itself is unaffected;
// chunks produced while detached are dropped.
func (s *Session) DetachSink() {
	s.sinkMu.Lock()
	s.sink = nil
	s.sinkMu.Unlock()
}

// deliver hands one chunk to the sink, dropping it when no sink is
// attached or the sink is full. Runs on the producer goroutine. The
// read lock is held across the non-blocking send so DetachSink cannot
// return while a delivery to the old sink is still in flight.
func (s *Session) deliver(chunk audio.Chunk) {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()

	if s.sink == nil {
		return
	}
	select {
	case s.sink <- chunk:
	default:
		s.log.Debug().Int64("timestamp_ms", chunk.Timestamp).Msg("Sink full, chunk dropped")
	}
}

// Handle dispatches one named operation from the external boundary.
// Unknown names yield ErrNotImplemented, a distinct outcome rather than
// a failure.
func (s *Session) Handle(method string, args map[string]any) (any, error) {
	switch method {
	case OpGetAudioSources:
		return s.ListSources()

	case OpSelectAudioSource:
		id, ok := args["sourceId"].(string)
		if !ok {
			return nil, invalidArguments("sourceId is required")
		}
		return s.SelectSource(id)

	case OpStartCapture:
		return s.StartCapture(), nil

	case OpStopCapture:
		return s.StopCapture(), nil

	case OpGetAudioConfig:
		return s.Config(), nil

	default:
		return nil, ErrNotImplemented
	}
}
