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
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/service/storage"
)

// store writes valid records and their indexes to the database.
type store struct {
	db      *badger.DB
	lib     *storage.Library
	records Records
}

func newStore(db *badger.DB, lib *storage.Library, records Records) *store {
	s := store{
		db:      db,
		lib:     lib,
		records: records,
	}

	return &s
}

// Transaction stores a single transaction.
func (s *store) Transaction(tx record.Transaction) error {
	err := s.db.Update(s.lib.SaveTransaction(tx))
	if err != nil {
		return fmt.Errorf("could not save transaction: %w", err)
	}

	return nil
}

// Block stores a block with its transactions and indexes, and extends the
// range of indexed parent slots.
func (s *store) Block(block record.Block) error {

	blockID := s.records.BlockID(block)
	transactions := block.Transactions()

	var ops []func(*badger.Txn) error
	txIDs := make([]record.Identifier, 0, len(transactions))
	for _, tx := range transactions {
		ops = append(ops, s.lib.SaveTransaction(tx))
		txIDs = append(txIDs, s.records.TransactionID(tx))
	}
	ops = append(ops,
		s.lib.SaveBlock(block),
		s.lib.IndexBlockForParent(block.ParentSlot(), blockID),
		s.lib.IndexTransactionsForBlock(blockID, txIDs),
		s.lib.IndexSlotForValidator(block.ValidatorAddress(), block.ParentSlot()),
		s.bounds(block.ParentSlot()),
	)

	err := s.db.Update(storage.Combine(ops...))
	if err != nil {
		return fmt.Errorf("could not save block (id: %s): %w", blockID, err)
	}

	return nil
}

// bounds extends the range of indexed parent slots to include the given slot.
// The first stored block initializes both ends of the range.
func (s *store) bounds(slot uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		first, last := slot, slot
		err := storage.Combine(
			storage.Fallback(s.lib.RetrieveFirst(&first), s.lib.SaveFirst(slot)),
			storage.Fallback(s.lib.RetrieveLast(&last), s.lib.SaveLast(slot)),
		)(tx)
		if err != nil {
			return fmt.Errorf("could not initialize slot range: %w", err)
		}

		if slot < first {
			err = s.lib.SaveFirst(slot)(tx)
			if err != nil {
				return fmt.Errorf("could not save first slot: %w", err)
			}
		}
		if slot > last {
			err = s.lib.SaveLast(slot)(tx)
			if err != nil {
				return fmt.Errorf("could not save last slot: %w", err)
			}
		}

		return nil
	}
}
