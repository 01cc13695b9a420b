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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the capture lifecycle state of an engine.
// Idle is both the initial and the terminal state.
type State int32

const (
	StateIdle State = iota
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	// ErrAlreadyCapturing is returned by Start while a producer is running
	ErrAlreadyCapturing = errors.New("capture already in progress")

	// ErrEngineClosed is returned by Start after Close
	ErrEngineClosed = errors.New("engine closed")
)

// BlockSource produces one sample block per read.
// Implementations are used by exactly one engine at a time.
type BlockSource interface {
	// Open acquires the underlying resources. Called by Engine.Start.
	Open() error

	// ReadBlock returns the next block of BlockSizeFrames samples.
	ReadBlock() ([]float32, error)

	// Close releases the resources acquired by Open. Called by Engine.Stop.
	Close() error

	// Realtime reports whether ReadBlock blocks for roughly the duration
	// of the audio it returns. When false the engine paces the loop by
	// sleeping one block duration between reads.
	Realtime() bool
}

// Engine owns the capture lifecycle and the single producer goroutine.
// Engines are independent: multiple engines mean multiple producers with
// no shared state between them.
//
// The pacing sleep does not subtract callback latency, so a sustained
// slow callback causes cumulative drift against real time. Known
// limitation, kept from the original loop.
type Engine struct {
	src      BlockSource
	interval time.Duration

	mu     sync.Mutex // serializes Start/Stop/Close
	stopCh chan struct{}
	wg     sync.WaitGroup
	closed bool

	state atomic.Int32

	errMu   sync.Mutex
	lastErr error
}

// NewEngine creates an idle engine reading from src with the block
// cadence of cfg.
func NewEngine(src BlockSource, cfg Config) *Engine {
	e := &Engine{src: src}
	if !src.Realtime() {
		e.interval = cfg.BlockDuration()
	}
	return e
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Err returns the fault that terminated the last producer, if any.
// It is cleared by the next successful Start.
func (e *Engine) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

// Start transitions Idle→Capturing and spawns the producer goroutine.
// It returns immediately; the caller does not wait for the first block.
// onBlock is invoked on the producer goroutine once per block.
func (e *Engine) Start(onBlock func(block []float32)) error {
	if onBlock == nil {
		return errors.New("nil block callback")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.State() == StateCapturing {
		return ErrAlreadyCapturing
	}

	// Reap a producer that faulted since the last Stop so its stop
	// channel and source are not leaked.
	e.stopLocked()

	if err := e.src.Open(); err != nil {
		return fmt.Errorf("failed to open block source: %w", err)
	}

	e.setErr(nil)
	e.stopCh = make(chan struct{})
	e.state.Store(int32(StateCapturing))
	e.wg.Add(1)
	go e.run(onBlock, e.stopCh)

	return nil
}

// Stop signals the producer and blocks until it has fully exited, then
// returns the engine to Idle. Safe to call repeatedly, from any
// goroutine except the producer itself, and while already Idle.
// No callback fires after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Close stops any running capture and releases the engine. Start on a
// closed engine fails with ErrEngineClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.closed = true
}

func (e *Engine) stopLocked() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	e.wg.Wait()
	e.stopCh = nil
	_ = e.src.Close()
	e.state.Store(int32(StateIdle))
}

// run is the producer loop. The stop channel is the single cross-thread
// signal; it is observed at the top of each iteration and during the
// pacing sleep, so stop latency is bounded by one block interval.
func (e *Engine) run(onBlock func([]float32), stopCh <-chan struct{}) {
	defer e.wg.Done()

	var timer *time.Timer
	if e.interval > 0 {
		timer = time.NewTimer(e.interval)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()
	}

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		block, err := e.src.ReadBlock()
		if err != nil {
			// Fault: back to Idle, surfaced via Err on the next
			// control interaction. Stop still joins normally.
			e.setErr(fmt.Errorf("block source read: %w", err))
			e.state.Store(int32(StateIdle))
			return
		}

		onBlock(block)

		if timer != nil {
			timer.Reset(e.interval)
			select {
			case <-stopCh:
				return
			case <-timer.C:
			}
		}
	}
}

func (e *Engine) setErr(err error) {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()
}
