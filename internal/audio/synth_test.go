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
	"math"
	"testing"
)

func TestSineSourceBlockShape(t *testing.T) {
	cfg := DefaultConfig()
	src := NewSineSource(cfg)

	block, err := src.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock() error = %v", err)
	}

	if len(block) != cfg.BlockSizeFrames {
		t.Fatalf("Block length = %d, want %d", len(block), cfg.BlockSizeFrames)
	}

	if block[0] != 0 {
		t.Errorf("First sample = %f, want 0 (sine starts at phase zero)", block[0])
	}

	var peak float64
	for _, s := range block {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if peak > 0.1+1e-6 {
		t.Errorf("Peak amplitude = %f, want <= 0.1", peak)
	}
	if peak < 0.09 {
		t.Errorf("Peak amplitude = %f, suspiciously low for a 0.1 tone", peak)
	}
}

// The synthesizer restarts its phase on every block. Consecutive blocks
// are therefore bit-identical, and block boundaries are discontinuous
// whenever the tone period does not divide the block length.
func TestSineSourcePhaseRestartsPerBlock(t *testing.T) {
	cfg := DefaultConfig()
	src := NewSineSource(cfg)

	first, _ := src.ReadBlock()
	second, _ := src.ReadBlock()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Blocks diverge at sample %d: %f vs %f", i, first[i], second[i])
		}
	}
}
