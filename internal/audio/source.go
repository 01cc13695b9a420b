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

// SourceKind classifies a capture source
type SourceKind string

const (
	// KindMicrophone is a physical or virtual input device
	KindMicrophone SourceKind = "microphone"

	// KindSystemLoopback captures system output audio rather than an input
	KindSystemLoopback SourceKind = "system"
)

// SystemAudioID is the well-known identifier of the loopback source.
// Every catalog snapshot contains exactly one entry with this id.
const SystemAudioID = "system_audio"

// Source describes one capture source in a catalog snapshot.
// Sources are immutable once enumerated; re-enumerating produces a
// fresh list rather than diffing against the previous one.
type Source struct {
	ID        string
	Name      string
	Kind      SourceKind
	Available bool
}

// Catalog enumerates the capture sources currently known to a backend.
// This enables dependency injection and makes testing hardware-independent.
type Catalog interface {
	// ListSources returns the current snapshot, ordered. It has no side
	// effects and may be called at any time, including while a capture
	// is in progress.
	ListSources() ([]Source, error)
}

// MockCatalog implements Catalog without touching any audio hardware.
// It reports a fixed default microphone plus the system loopback entry,
// all marked available.
type MockCatalog struct{}

// NewMockCatalog creates a new mock source catalog
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{}
}

// ListSources returns the same deterministic snapshot on every call
func (m *MockCatalog) ListSources() ([]Source, error) {
	return []Source{
		{
			ID:        "device_0",
			Name:      "Default Microphone",
			Kind:      KindMicrophone,
			Available: true,
		},
		{
			ID:        SystemAudioID,
			Name:      "System Audio (Loopback)",
			Kind:      KindSystemLoopback,
			Available: true,
		},
	}, nil
}
