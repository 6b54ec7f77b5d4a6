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

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v2"

	"github.com/optakt/arcane/record"
)

// SaveFirst is an operation that writes the lowest indexed parent slot.
func (l *Library) SaveFirst(slot uint64) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixFirst), slot)
}

// SaveLast is an operation that writes the highest indexed parent slot.
func (l *Library) SaveLast(slot uint64) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixLast), slot)
}

// SaveBlock is an operation that writes the given block under its identifier.
func (l *Library) SaveBlock(block record.Block) func(*badger.Txn) error {
	data := l.records.EncodeBlock(block)
	return l.saveEncoded(EncodeKey(PrefixBlock, l.records.BlockID(block)), data)
}

// IndexBlockForParent is an operation that indexes a block identifier for the
// parent slot it builds on.
func (l *Library) IndexBlockForParent(parentSlot uint64, blockID record.Identifier) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixBlockForParent, parentSlot), blockID)
}

// SaveTransaction is an operation that writes the given transaction under its
// identifier.
func (l *Library) SaveTransaction(transaction record.Transaction) func(*badger.Txn) error {
	data := l.records.EncodeTransaction(transaction)
	return l.saveEncoded(EncodeKey(PrefixTransaction, l.records.TransactionID(transaction)), data)
}

// IndexTransactionsForBlock is an operation that indexes the identifiers of
// the transactions contained in a block.
func (l *Library) IndexTransactionsForBlock(blockID record.Identifier, txIDs []record.Identifier) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixTransactionsForBlock, blockID), txIDs)
}

// IndexSlotForValidator is an operation that records that the validator with
// the given address produced a block on top of the given parent slot.
func (l *Library) IndexSlotForValidator(address string, parentSlot uint64) func(*badger.Txn) error {
	hash := xxhash.ChecksumString64(address)
	return l.save(EncodeKey(PrefixSlotForValidator, hash, parentSlot), address)
}

// RetrieveFirst retrieves the lowest indexed parent slot.
func (l *Library) RetrieveFirst(slot *uint64) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixFirst), slot)
}

// RetrieveLast retrieves the highest indexed parent slot.
func (l *Library) RetrieveLast(slot *uint64) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixLast), slot)
}

// RetrieveBlock retrieves the block with the given identifier. The stored
// encoding is validated again on the way out.
func (l *Library) RetrieveBlock(blockID record.Identifier, block *record.Block) func(*badger.Txn) error {
	return l.retrieveEncoded(EncodeKey(PrefixBlock, blockID), func(data []byte) error {
		decoded, err := l.records.DecodeBlock(data)
		if err != nil {
			return err
		}
		*block = decoded
		return nil
	})
}

// LookupBlockForParent retrieves the identifier of the block built on top of
// the given parent slot.
func (l *Library) LookupBlockForParent(parentSlot uint64, blockID *record.Identifier) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixBlockForParent, parentSlot), blockID)
}

// RetrieveTransaction retrieves the transaction with the given identifier.
func (l *Library) RetrieveTransaction(txID record.Identifier, transaction *record.Transaction) func(*badger.Txn) error {
	return l.retrieveEncoded(EncodeKey(PrefixTransaction, txID), func(data []byte) error {
		decoded, err := l.records.DecodeTransaction(data)
		if err != nil {
			return err
		}
		*transaction = decoded
		return nil
	})
}

// LookupTransactionsForBlock retrieves the identifiers of the transactions
// contained in the block with the given identifier.
func (l *Library) LookupTransactionsForBlock(blockID record.Identifier, txIDs *[]record.Identifier) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixTransactionsForBlock, blockID), txIDs)
}

// LookupSlotsForValidator retrieves, in ascending order, the parent slots of
// all blocks produced by the validator with the given address.
func (l *Library) LookupSlotsForValidator(address string, slots *[]uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		hash := xxhash.ChecksumString64(address)
		prefix := EncodeKey(PrefixSlotForValidator, hash)
		opts := badger.DefaultIteratorOptions
		// NOTE: this is an optimization only, it does not enforce that all
		// results in the iteration have this prefix.
		opts.Prefix = prefix

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {

			// Different addresses can share a hash, so the stored address has to
			// match as well.
			var stored string
			err := it.Item().Value(func(val []byte) error {
				return l.codec.Unmarshal(val, &stored)
			})
			if err != nil {
				return fmt.Errorf("could not decode validator address: %w", err)
			}
			if stored != address {
				continue
			}

			slot := binary.BigEndian.Uint64(it.Item().Key()[1+8:])
			*slots = append(*slots, slot)
		}

		return nil
	}
}
