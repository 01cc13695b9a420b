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

// Package nats delivers encoded capture chunks to NATS subjects. It is
// one concrete sink behind the session's attach/detach boundary.
package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/skaldaudio/skald/internal/audio"
	"github.com/skaldaudio/skald/internal/transport"
)

// Conn is the slice of the NATS connection the publisher needs.
// Interface for dependency injection; tests substitute a fake.
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// connAdapter adapts *nats.Conn to the Conn interface
type connAdapter struct {
	conn *nats.Conn
}

func (a *connAdapter) Publish(subject string, data []byte) error {
	return a.conn.Publish(subject, data)
}

func (a *connAdapter) Flush() error {
	return a.conn.Flush()
}

func (a *connAdapter) Close() {
	a.conn.Close()
}

// Connect dials the NATS server with retry
func Connect(url string, log zerolog.Logger) (Conn, error) {
	var nc *nats.Conn
	var err error

	for i := 0; i < 5; i++ {
		nc, err = nats.Connect(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to NATS")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after 5 attempts: %w", err)
	}

	log.Info().Str("url", url).Msg("Connected to NATS")
	return &connAdapter{conn: nc}, nil
}

// Publisher drains a chunk channel and publishes each chunk as a binary
// audio frame on a single subject. It implements the session's sink
// contract: the channel is bounded and the session drops chunks the
// publisher cannot accept in time.
type Publisher struct {
	conn      Conn
	subject   string
	sessionID uint32
	log       zerolog.Logger

	ch   chan audio.Chunk
	done chan struct{}
}

// NewPublisher creates a publisher for the given subject and starts its
// pump goroutine. sessionID tags every frame of this capture session.
func NewPublisher(conn Conn, subject string, sessionID uint32, log zerolog.Logger) *Publisher {
	p := &Publisher{
		conn:      conn,
		subject:   subject,
		sessionID: sessionID,
		log:       log,
		ch:        make(chan audio.Chunk, 16),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

// Sink returns the channel to attach to a capture session
func (p *Publisher) Sink() chan<- audio.Chunk {
	return p.ch
}

func (p *Publisher) run() {
	defer close(p.done)

	var seq uint32
	for chunk := range p.ch {
		frame := transport.NewFrame(
			transport.FrameTypeAudioData,
			p.sessionID,
			seq,
			uint64(chunk.Timestamp), //nolint:gosec // G115: timestamps are non-negative
			chunk.Data,
		)
		seq++

		data, err := frame.Serialize()
		if err != nil {
			p.log.Error().Err(err).Uint32("sequence", frame.Sequence).Msg("Failed to serialize audio frame")
			continue
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			p.log.Warn().Err(err).Uint32("sequence", frame.Sequence).Msg("Failed to publish audio frame")
		}
	}

	// Stream end marker after the channel is closed and drained.
	end := transport.NewFrame(transport.FrameTypeAudioEnd, p.sessionID, seq, 0, nil)
	if data, err := end.Serialize(); err == nil {
		if err := p.conn.Publish(p.subject, data); err != nil {
			p.log.Warn().Err(err).Msg("Failed to publish end-of-stream frame")
		}
	}
}

// Close stops the pump after draining queued chunks, publishes the
// end-of-stream frame and flushes the connection. Detach the sink from
// the session before calling Close; sends to a closed publisher panic.
func (p *Publisher) Close() error {
	close(p.ch)
	<-p.done
	return p.conn.Flush()
}
