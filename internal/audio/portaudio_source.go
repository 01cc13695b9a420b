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

package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource reads real input blocks from the default capture
// device via PortAudio. ReadBlock blocks on device I/O for the duration
// of one block, so the engine applies no additional pacing.
type PortAudioSource struct {
	cfg    Config
	stream *portaudio.Stream
	buffer []float32
}

// NewPortAudioSource creates a device-backed block source in the block
// format of cfg. No resources are acquired until Open.
func NewPortAudioSource(cfg Config) *PortAudioSource {
	return &PortAudioSource{cfg: cfg}
}

// Open initializes PortAudio and starts an input stream on the default device
func (p *PortAudioSource) Open() error {
	if p.stream != nil {
		return fmt.Errorf("source already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.buffer = make([]float32, p.cfg.BlockSizeFrames*p.cfg.ChannelCount)

	stream, err := portaudio.OpenDefaultStream(
		p.cfg.ChannelCount, // input channels
		0,                  // output channels (capture only)
		float64(p.cfg.SampleRateHz),
		p.cfg.BlockSizeFrames,
		p.buffer,
	)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	p.stream = stream
	return nil
}

// ReadBlock blocks until the device has filled one block, then returns a
// copy of it.
func (p *PortAudioSource) ReadBlock() ([]float32, error) {
	if p.stream == nil {
		return nil, fmt.Errorf("source not open")
	}

	if err := p.stream.Read(); err != nil {
		return nil, fmt.Errorf("device read: %w", err)
	}

	block := make([]float32, len(p.buffer))
	copy(block, p.buffer)
	return block, nil
}

// Close stops the stream and terminates PortAudio
func (p *PortAudioSource) Close() error {
	if p.stream == nil {
		return nil
	}

	_ = p.stream.Stop()
	err := p.stream.Close()
	p.stream = nil

	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

// Realtime reports true: device reads pace themselves
func (p *PortAudioSource) Realtime() bool { return true }
