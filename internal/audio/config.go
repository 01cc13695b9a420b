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

import "time"

// Config describes the fixed capture format shared by every session.
// All produced blocks must satisfy it.
type Config struct {
	SampleRateHz    int
	ChannelCount    int
	BitsPerSample   int
	BlockSizeFrames int
}

// DefaultConfig returns the capture format used across the service:
// 16 kHz mono, 16-bit samples, 1600-frame blocks (100ms of audio).
func DefaultConfig() Config {
	return Config{
		SampleRateHz:    16000,
		ChannelCount:    1,
		BitsPerSample:   16,
		BlockSizeFrames: 1600,
	}
}

// BlockDuration returns the real-time length of one block.
func (c Config) BlockDuration() time.Duration {
	return time.Duration(c.BlockSizeFrames) * time.Second / time.Duration(c.SampleRateHz)
}

// BlockBytes returns the encoded size of one block in bytes.
func (c Config) BlockBytes() int {
	return c.BlockSizeFrames * c.ChannelCount * c.BitsPerSample / 8
}
