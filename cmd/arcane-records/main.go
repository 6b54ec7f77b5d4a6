// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/optakt/arcane/codec/canonical"
	"github.com/optakt/arcane/codec/zbor"
	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/service/metrics"
	"github.com/optakt/arcane/service/storage"
)

const (
	success = 0
	failure = 1
)

func main() {
	os.Exit(run())
}

func run() int {

	// Command line parameter initialization.
	var (
		flagData    string
		flagHex     bool
		flagInput   string
		flagKind    string
		flagLevel   string
		flagMetrics string
		flagMode    string
		flagWorkers int
	)

	pflag.StringVarP(&flagData, "data", "d", "", "directory for the record database (records are not stored if empty)")
	pflag.BoolVar(&flagHex, "hex", false, "require addresses and signatures to consist of hexadecimal digits")
	pflag.StringVarP(&flagInput, "input", "i", "-", "file with one JSON record per line (- for standard input); lines over 16 MiB are rejected")
	pflag.StringVarP(&flagKind, "kind", "k", kindTransaction, "kind of records in the input (transaction or block)")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log level for JSON logger output")
	pflag.StringVarP(&flagMetrics, "metrics", "m", "", "address on which to expose metrics (no metrics are exposed if empty)")
	pflag.StringVar(&flagMode, "mode", record.ModeStrict.String(), "validation mode for block transactions (strict or permissive)")
	pflag.IntVarP(&flagWorkers, "workers", "w", runtime.GOMAXPROCS(0), "maximum number of records validated concurrently")

	pflag.Parse()

	// Logger initialization.
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Error().Str("level", flagLevel).Err(err).Msg("could not parse log level")
		return failure
	}
	log = log.Level(level)

	if flagKind != kindTransaction && flagKind != kindBlock {
		log.Error().Str("kind", flagKind).Msg("invalid record kind")
		return failure
	}
	mode, err := record.ParseMode(flagMode)
	if err != nil {
		log.Error().Str("mode", flagMode).Err(err).Msg("could not parse validation mode")
		return failure
	}

	// Stop processing gracefully on interrupt.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Initialize the validator and the codec for the records.
	reg := prometheus.NewRegistry()
	validate := metrics.NewValidator(record.NewValidator(
		record.WithMode(mode),
		record.WithHexDigits(flagHex),
	), reg)
	records := canonical.NewCodec(validate)

	proc := processor{
		log:      log,
		kind:     flagKind,
		validate: validate,
		records:  records,
		workers:  flagWorkers,
	}

	// Initialize the record database, if one was requested.
	if flagData != "" {
		db, err := badger.Open(storage.DefaultOptions(flagData))
		if err != nil {
			log.Error().Str("data", flagData).Err(err).Msg("could not open record database")
			return failure
		}
		defer db.Close()

		values, err := zbor.NewCodec()
		if err != nil {
			log.Error().Err(err).Msg("could not initialize storage codec")
			return failure
		}
		lib := storage.New(metrics.NewCodec(values, reg), records)
		proc.store = newStore(db, lib, records)

		err = metrics.RegisterBadgerMetrics(reg)
		if err != nil {
			log.Error().Err(err).Msg("could not register database metrics")
			return failure
		}
	}

	// Expose the metrics, if an address was given.
	if flagMetrics != "" {
		server := metrics.NewServer(log, flagMetrics, reg)
		go func() {
			err := server.Start()
			if err != nil {
				log.Warn().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := server.Stop(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("could not stop metrics server")
			}
		}()
	}

	var input io.Reader = os.Stdin
	if flagInput != "-" {
		file, err := os.Open(flagInput)
		if err != nil {
			log.Error().Str("input", flagInput).Err(err).Msg("could not open input file")
			return failure
		}
		defer file.Close()
		input = file
	}

	start := time.Now()
	rejected, err := proc.process(ctx, input, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("could not process records")
		return failure
	}

	log.Info().
		Uint("rejected", rejected).
		Dur("duration", time.Since(start)).
		Msg("records processed")

	if rejected > 0 {
		return failure
	}

	return success
}
