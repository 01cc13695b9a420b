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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/skaldaudio/skald/internal/audio"
	"github.com/skaldaudio/skald/internal/logging"
	skaldnats "github.com/skaldaudio/skald/internal/nats"
	"github.com/skaldaudio/skald/internal/session"
)

type options struct {
	natsURL   string
	subject   string
	sourceID  string
	synthetic bool
	logLevel  string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("skald", flag.ContinueOnError)
	fs.StringVar(&opts.natsURL, "nats", natsgo.DefaultURL, "NATS server URL")
	fs.StringVar(&opts.subject, "subject", "skald.audio", "NATS subject prefix for audio frames")
	fs.StringVar(&opts.sourceID, "source", audio.SystemAudioID, "Capture source id to select")
	fs.BoolVar(&opts.synthetic, "synthetic", true, "Use the synthetic tone source instead of a real input device")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// buildSession assembles the catalog, engine and session for the chosen
// backend. The synthetic backend needs no audio hardware at all.
func buildSession(opts *options, log zerolog.Logger) *session.Session {
	cfg := audio.DefaultConfig()

	var catalog audio.Catalog
	var source audio.BlockSource
	if opts.synthetic {
		catalog = audio.NewMockCatalog()
		source = audio.NewSineSource(cfg)
	} else {
		catalog = audio.NewPortAudioCatalog()
		source = audio.NewPortAudioSource(cfg)
	}

	engine := audio.NewEngine(source, cfg)
	return session.New(catalog, engine, cfg, log)
}

func run(opts *options, log zerolog.Logger) error {
	sess := buildSession(opts, log)

	sources, err := sess.ListSources()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	for _, src := range sources {
		log.Info().
			Str("id", src.ID).
			Str("name", src.Name).
			Str("type", src.Type).
			Bool("available", src.IsAvailable).
			Msg("Capture source")
	}

	if _, err := sess.SelectSource(opts.sourceID); err != nil {
		return fmt.Errorf("failed to select source %q: %w", opts.sourceID, err)
	}

	conn, err := skaldnats.Connect(opts.natsURL, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	subject := opts.subject + "." + opts.sourceID
	sessionID := uint32(time.Now().Unix()) //nolint:gosec // G115: wraparound is harmless for a stream tag
	pub := skaldnats.NewPublisher(conn, subject, sessionID, log)

	sess.AttachSink(pub.Sink())

	if res := sess.StartCapture(); !res.Success {
		sess.DetachSink()
		_ = pub.Close()
		return fmt.Errorf("failed to start capture: %s", res.Message)
	}
	log.Info().Str("subject", subject).Msg("Streaming audio frames")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	// Stop joins the producer, so no chunk is in flight when the sink
	// detaches and the publisher drains.
	sess.StopCapture()
	sess.DetachSink()
	return pub.Close()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log := logging.New(opts.logLevel)
	if err := run(opts, log); err != nil {
		log.Fatal().Err(err).Msg("Capture service failed")
	}
}
