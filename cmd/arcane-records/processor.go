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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/optakt/arcane/record"
)

// Record kinds accepted on the command line.
const (
	kindTransaction = "transaction"
	kindBlock       = "block"
)

const maxLineSize = 16 << 20

// Validator builds records from untyped fields.
type Validator interface {
	Transaction(raw map[string]interface{}) (record.Transaction, error)
	Block(raw map[string]interface{}) (record.Block, error)
	Audit(raw map[string]interface{}) error
}

// Records encodes and identifies valid records.
type Records interface {
	EncodeTransaction(tx record.Transaction) []byte
	EncodeBlock(block record.Block) []byte
	TransactionID(tx record.Transaction) record.Identifier
	BlockID(block record.Block) record.Identifier
}

// Store persists valid records.
type Store interface {
	Transaction(tx record.Transaction) error
	Block(block record.Block) error
}

type result struct {
	line  int
	id    record.Identifier
	data  []byte
	tx    record.Transaction
	block record.Block
	err   error
	audit error
	entry int
}

// pending is a line of the input waiting to be validated.
type pending struct {
	line int
	data []byte
	err  error
}

type processor struct {
	log      zerolog.Logger
	kind     string
	validate Validator
	records  Records
	store    Store
	workers  int
	limit    int
}

// process reads one JSON record per line, validates the records concurrently
// and writes the identifier and canonical encoding of every valid record in
// input order. Lines longer than the limit are rejected without being parsed.
// It returns the number of rejected lines.
func (p *processor) process(ctx context.Context, source io.Reader, output io.Writer) (uint, error) {

	limit := p.limit
	if limit <= 0 {
		limit = maxLineSize
	}
	reader := bufio.NewReaderSize(source, 64*1024)

	batchSize := p.workers * 16
	if batchSize < 16 {
		batchSize = 16
	}

	rejected := uint(0)
	line := 0
	done := false
	for !done {

		select {
		case <-ctx.Done():
			return rejected, ctx.Err()
		default:
		}

		var inputs []pending
		for len(inputs) < batchSize {
			data, tooLong, err := readLine(reader, limit)
			if errors.Is(err, io.EOF) {
				done = true
				break
			}
			if err != nil {
				return rejected, fmt.Errorf("could not read input: %w", err)
			}
			line++
			if tooLong {
				reason := fmt.Sprintf("line exceeds %d bytes", limit)
				inputs = append(inputs, pending{line: line, err: record.Malformed(reason, bufio.ErrTooLong)})
				continue
			}
			if len(data) == 0 {
				continue
			}
			inputs = append(inputs, pending{line: line, data: data})
		}

		results, err := p.batch(ctx, inputs)
		if err != nil {
			return rejected, fmt.Errorf("could not process batch: %w", err)
		}

		for _, res := range results {
			ok, err := p.emit(output, res)
			if err != nil {
				return rejected, err
			}
			if !ok {
				rejected++
			}
		}
	}

	return rejected, nil
}

// readLine returns the next line without its line ending. A line longer than
// the limit is consumed entirely, and only reported as too long. It returns
// io.EOF once the input is exhausted.
func readLine(reader *bufio.Reader, limit int) ([]byte, bool, error) {

	var line []byte
	tooLong := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimSuffix(chunk, []byte("\n"))) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && (len(line) > 0 || tooLong) {
			err = nil
		}
		if err != nil {
			return nil, false, err
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		return line, tooLong, nil
	}
}

// batch validates the given inputs concurrently. Results keep the order of the
// inputs.
func (p *processor) batch(ctx context.Context, inputs []pending) ([]result, error) {

	eg, ctx := errgroup.WithContext(ctx)
	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)

	results := make([]result, len(inputs))
	for i, in := range inputs {
		i, in := i, in
		if in.err != nil {
			results[i] = result{line: in.line, err: in.err, entry: -1}
			continue
		}
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = p.validateLine(in.line, in.data)
			return nil
		})
	}

	err := eg.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (p *processor) validateLine(line int, data []byte) result {

	res := result{line: line, entry: -1}

	raw, err := record.DecodeJSON(data)
	if err != nil {
		res.err = err
		return res
	}

	switch p.kind {

	case kindTransaction:
		res.tx, res.err = p.validate.Transaction(raw)
		if res.err != nil {
			res.audit = p.validate.Audit(raw)
			return res
		}
		res.id = p.records.TransactionID(res.tx)
		res.data = p.records.EncodeTransaction(res.tx)

	case kindBlock:
		res.block, res.err = p.validate.Block(raw)
		if res.err != nil {
			res.entry, res.audit = p.auditEntry(raw, res.err)
			return res
		}
		res.id = p.records.BlockID(res.block)
		res.data = p.records.EncodeBlock(res.block)

	default:
		res.err = fmt.Errorf("unknown record kind (%s)", p.kind)
	}

	return res
}

// auditEntry reports every violation of the block transaction that made the
// block fail, along with its position, if a transaction's fields are at fault.
func (p *processor) auditEntry(raw map[string]interface{}, err error) (int, error) {

	var rerr *record.Error
	if !errors.As(err, &rerr) || rerr.Kind == record.InvalidTransactionEntry || !errors.Is(err, record.InvalidTransactionEntry) {
		return -1, nil
	}

	list, ok := raw[record.FieldTransactions].([]interface{})
	if !ok || rerr.Index < 0 || rerr.Index >= len(list) {
		return -1, nil
	}
	entry, ok := list[rerr.Index].(map[string]interface{})
	if !ok {
		return -1, nil
	}

	return rerr.Index, p.validate.Audit(entry)
}

// emit reports the result of one line. It returns false if the line was
// rejected.
func (p *processor) emit(output io.Writer, res result) (bool, error) {

	log := p.log.With().Int("line", res.line).Logger()

	if res.err != nil {
		violationLog := log
		if res.entry >= 0 {
			violationLog = log.With().Int("entry", res.entry).Logger()
		}
		var violations *multierror.Error
		if errors.As(res.audit, &violations) {
			for _, violation := range violations.Errors {
				violationLog.Warn().Err(violation).Msg("record violation")
			}
		}
		log.Warn().Err(res.err).Msg("record rejected")
		return false, nil
	}

	if p.store != nil {
		var err error
		switch p.kind {
		case kindTransaction:
			err = p.store.Transaction(res.tx)
		case kindBlock:
			err = p.store.Block(res.block)
		}
		if err != nil {
			return true, fmt.Errorf("could not store record (line: %d): %w", res.line, err)
		}
	}

	_, err := fmt.Fprintf(output, "%s %x\n", res.id, res.data)
	if err != nil {
		return true, fmt.Errorf("could not write output: %w", err)
	}

	log.Debug().Str("id", res.id.String()).Int("size", len(res.data)).Msg("record accepted")

	return true, nil
}
