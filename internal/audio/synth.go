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

import "math"

// SineSource synthesizes blocks of a fixed sine tone. It stands in for a
// real device backend: no hardware, no blocking reads, same block contract.
//
// The phase restarts at sample zero on every block, so block boundaries
// are discontinuous for any tone whose period does not divide the block
// length. The default 440 Hz tone happens to fit 44 exact periods per
// block. Restart behavior kept as-is from the historical mock; see
// DESIGN.md.
type SineSource struct {
	cfg       Config
	freqHz    float64
	amplitude float64
}

// NewSineSource creates a synthetic source producing a 440 Hz tone at
// amplitude 0.1 in the block format of cfg.
func NewSineSource(cfg Config) *SineSource {
	return &SineSource{
		cfg:       cfg,
		freqHz:    440.0,
		amplitude: 0.1,
	}
}

// Open is a no-op; the synthesizer has no resources to acquire
func (s *SineSource) Open() error { return nil }

// Close is a no-op
func (s *SineSource) Close() error { return nil }

// Realtime reports false: ReadBlock returns immediately and the engine
// must pace the loop itself.
func (s *SineSource) Realtime() bool { return false }

// ReadBlock synthesizes one block of BlockSizeFrames samples
func (s *SineSource) ReadBlock() ([]float32, error) {
	block := make([]float32, s.cfg.BlockSizeFrames)
	for i := range block {
		t := float64(i) / float64(s.cfg.SampleRateHz)
		block[i] = float32(s.amplitude * math.Sin(2*math.Pi*s.freqHz*t))
	}
	return block, nil
}
