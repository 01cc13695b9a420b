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
	"encoding/binary"
	"time"
)

// Chunk is one encoded block of audio ready for transport:
// little-endian signed 16-bit PCM plus a millisecond timestamp.
// A chunk is never mutated after creation.
type Chunk struct {
	Data      []byte
	Timestamp int64 // milliseconds since the encoder was created, monotonic
}

// Encoder converts normalized float32 sample blocks into 16-bit PCM chunks.
// Timestamps are taken from a monotonic clock anchored at construction, so
// chunks produced by one encoder never carry decreasing timestamps.
//
// Quantization truncates toward zero. Samples outside [-1.0, 1.0] are NOT
// clamped: the 16-bit conversion wraps, matching the historical encoder
// behavior on out-of-range input.
type Encoder struct {
	epoch time.Time
}

// NewEncoder creates an encoder with its timestamp epoch set to now
func NewEncoder() *Encoder {
	return &Encoder{epoch: time.Now()}
}

// Encode converts one sample block to a PCM chunk.
// It is called inline from the capture callback and must not be shared
// across producer goroutines.
func (e *Encoder) Encode(block []float32) Chunk {
	data := make([]byte, len(block)*2)
	for i, s := range block {
		// int32 first so the float conversion is defined for out-of-range
		// input; the uint16 truncation then wraps instead of clamping.
		v := int32(float64(s) * 32767.0)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return Chunk{
		Data:      data,
		Timestamp: time.Since(e.epoch).Milliseconds(),
	}
}
