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

// PortAudioCatalog enumerates real input devices via PortAudio.
// PortAudio initialization is reference counted, so listing while a
// capture stream is open does not disturb it.
type PortAudioCatalog struct{}

// NewPortAudioCatalog creates a device-backed source catalog
func NewPortAudioCatalog() *PortAudioCatalog {
	return &PortAudioCatalog{}
}

// ListSources enumerates input-capable devices as microphone sources,
// ids derived from the enumeration index, and appends the fixed system
// loopback entry.
func (c *PortAudioCatalog) ListSources() ([]Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	sources := make([]Source, 0, len(devices)+1)
	for i, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		sources = append(sources, Source{
			ID:        fmt.Sprintf("device_%d", i),
			Name:      d.Name,
			Kind:      KindMicrophone,
			Available: true,
		})
	}

	sources = append(sources, Source{
		ID:        SystemAudioID,
		Name:      "System Audio (Loopback)",
		Kind:      KindSystemLoopback,
		Available: true,
	})

	return sources, nil
}
