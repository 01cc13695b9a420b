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

package nats

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skaldaudio/skald/internal/audio"
	"github.com/skaldaudio/skald/internal/transport"
)

// fakeConn records published messages in place of a real NATS connection
type fakeConn struct {
	mu       sync.Mutex
	messages []publishedMsg
	flushed  bool
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.messages = append(f.messages, publishedMsg{subject: subject, data: cp})
	return nil
}

func (f *fakeConn) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) published() []publishedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMsg, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestPublisherFramesChunks(t *testing.T) {
	conn := &fakeConn{}
	pub := NewPublisher(conn, "skald.audio.system_audio", 777, zerolog.Nop())

	sink := pub.Sink()
	sink <- audio.Chunk{Data: []byte{0x01, 0x02, 0x03, 0x04}, Timestamp: 100}
	sink <- audio.Chunk{Data: []byte{0x05, 0x06}, Timestamp: 200}

	require.NoError(t, pub.Close())

	msgs := conn.published()
	require.Len(t, msgs, 3, "two audio frames plus the end-of-stream marker")
	assert.True(t, conn.flushed)

	first, err := transport.DeserializeFrame(msgs[0].data)
	require.NoError(t, err)
	assert.Equal(t, "skald.audio.system_audio", msgs[0].subject)
	assert.Equal(t, transport.FrameTypeAudioData, first.Type)
	assert.Equal(t, uint32(777), first.SessionID)
	assert.Equal(t, uint32(0), first.Sequence)
	assert.Equal(t, uint64(100), first.Timestamp)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, first.Data)

	second, err := transport.DeserializeFrame(msgs[1].data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), second.Sequence)
	assert.Equal(t, uint64(200), second.Timestamp)

	end, err := transport.DeserializeFrame(msgs[2].data)
	require.NoError(t, err)
	assert.Equal(t, transport.FrameTypeAudioEnd, end.Type)
	assert.Equal(t, uint32(2), end.Sequence)
	assert.Empty(t, end.Data)
}

func TestPublisherAsSessionSink(t *testing.T) {
	conn := &fakeConn{}
	pub := NewPublisher(conn, "skald.audio.device_0", 1, zerolog.Nop())

	// The publisher's channel is the session-facing sink: an encoded
	// capture chunk pushed through it comes out as one audio frame.
	enc := audio.NewEncoder()
	block := make([]float32, audio.DefaultConfig().BlockSizeFrames)
	pub.Sink() <- enc.Encode(block)

	require.NoError(t, pub.Close())

	msgs := conn.published()
	require.Len(t, msgs, 2)

	frame, err := transport.DeserializeFrame(msgs[0].data)
	require.NoError(t, err)
	assert.Len(t, frame.Data, audio.DefaultConfig().BlockBytes())
}

func TestPublisherCloseDrains(t *testing.T) {
	conn := &fakeConn{}
	pub := NewPublisher(conn, "skald.audio.test", 1, zerolog.Nop())

	for i := 0; i < 10; i++ {
		pub.Sink() <- audio.Chunk{Data: []byte{byte(i)}, Timestamp: int64(i)}
	}
	require.NoError(t, pub.Close())

	// All queued chunks are published before the end marker.
	msgs := conn.published()
	require.Len(t, msgs, 11)
	for i := 0; i < 10; i++ {
		frame, err := transport.DeserializeFrame(msgs[i].data)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), frame.Sequence) //nolint:gosec // G115: small test values
		assert.Equal(t, []byte{byte(i)}, frame.Data)
	}
}
